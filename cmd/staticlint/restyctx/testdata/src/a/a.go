package a

import (
	"context"

	"github.com/go-resty/resty/v2"
)

func withoutContext(c *resty.Client) {
	_, _ = c.R().Get("/users") // want "resty request sent without SetContext"
}

func withoutContextInChain(c *resty.Client) {
	_, _ = c.R().SetQueryParam("page", "2").SetResult(nil).Get("/users") // want "resty request sent without SetContext"
}

func withContext(ctx context.Context, c *resty.Client) {
	_, _ = c.R().SetContext(ctx).Delete("/users/3")
}

func withContextLater(ctx context.Context, c *resty.Client) {
	_, _ = c.R().SetQueryParam("page", "2").SetContext(ctx).Get("/users")
}

func request(ctx context.Context, c *resty.Client) *resty.Request {
	return c.R().SetContext(ctx)
}

func throughHelper(ctx context.Context, c *resty.Client) {
	_, _ = request(ctx, c).Post("/login")
}
