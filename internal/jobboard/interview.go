package jobboard

import "context"

// SaveInterview asks the server to generate and store an interview for postID.
func (c *Client) SaveInterview(ctx context.Context, postID int) (*Interview, error) {
	var interview Interview
	if err := c.post(ctx, pathSaveInterview, map[string]int{"post_id": postID}, &interview); err != nil {
		return nil, err
	}
	return &interview, nil
}

// Interview fetches the stored interview for postID.
func (c *Client) Interview(ctx context.Context, postID int) (*Interview, error) {
	var interview Interview
	if err := c.post(ctx, pathInterview, map[string]int{"post_id": postID}, &interview); err != nil {
		return nil, err
	}
	return &interview, nil
}

// SubmitInterview sends the answers. Unanswered questions may be omitted.
func (c *Client) SubmitInterview(ctx context.Context, sub Submission) error {
	if err := c.check(sub); err != nil {
		return err
	}
	return c.post(ctx, pathSubmitInterview, sub, nil)
}

// EvaluateResponses asks the server to score a submitted interview.
func (c *Client) EvaluateResponses(ctx context.Context, interviewID int) (*Evaluation, error) {
	var eval Evaluation
	if err := c.post(ctx, pathEvaluateResponses, map[string]int{"interview_id": interviewID}, &eval); err != nil {
		return nil, err
	}
	return &eval, nil
}
