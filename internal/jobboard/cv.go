package jobboard

import (
	"context"
	"errors"
	"strconv"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// cvField is the multipart field name of the uploaded file.
const cvField = "cv"

// UploadCV attaches a CV to an application for postID.
func (c *Client) UploadCV(ctx context.Context, postID int, file openapi_types.File) (*CV, error) {
	if file.FileSize() == 0 {
		return nil, &ValidationError{Err: errors.New("CV file is empty")}
	}

	var cv CV
	fields := map[string]string{"post_id": strconv.Itoa(postID)}
	if err := c.api.Upload(ctx, pathUploadCV, fields, cvField, file, &cv); err != nil {
		return nil, err
	}
	return &cv, nil
}

// CompareCVWithPost asks the server to score the uploaded CV against postID.
func (c *Client) CompareCVWithPost(ctx context.Context, postID int) (*MatchResult, error) {
	var result MatchResult
	if err := c.post(ctx, pathCompareCV, map[string]int{"post_id": postID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
