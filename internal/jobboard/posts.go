package jobboard

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CreatePost publishes a job post. Employer only.
func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}

	var post Post
	if err := c.post(ctx, pathPosts, in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns all job posts.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, pathPosts, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// MyPosts returns the posts created by the authenticated employer.
func (c *Client) MyPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.get(ctx, pathMyPosts, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post.
func (c *Client) GetPost(ctx context.Context, id int) (*Post, error) {
	path, err := idPath(pathPost, id)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.get(ctx, path, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post's writable fields.
func (c *Client) UpdatePost(ctx context.Context, id int, in PostInput) (*Post, error) {
	if err := c.check(in); err != nil {
		return nil, err
	}
	path, err := idPath(pathPost, id)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := c.api.Do(ctx, http.MethodPut, path, in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	path, err := idPath(pathPost, id)
	if err != nil {
		return err
	}
	return c.api.Do(ctx, http.MethodDelete, path, nil, nil)
}

// ReportPost flags a post with a reason.
func (c *Client) ReportPost(ctx context.Context, id int, reason string) (*Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Err: errors.New("report reason is required")}
	}
	path, err := idPath(pathReportPost, id)
	if err != nil {
		return nil, err
	}

	var report Report
	if err := c.post(ctx, path, map[string]string{"reason": reason}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
