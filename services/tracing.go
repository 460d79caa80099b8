package services

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// capture runs fn in an X-Ray subsegment when ctx belongs to a traced request
// and adds metadata to it. Untraced contexts (background jobs, tests) run fn directly.
func capture(ctx context.Context, name string, metadata map[string]interface{}, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, func(ctx1 context.Context) error {
		if seg := xray.GetSegment(ctx1); seg != nil {
			for k, v := range metadata {
				seg.AddMetadata(k, v)
			}
		}
		return fn(ctx1)
	})
}
