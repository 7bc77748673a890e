package extract

import (
	"context"
	"fmt"
	"time"
)

// fakePage records calls and serves canned responses
type fakePage struct {
	calls []string

	navErr   error
	waitErr  error
	clickErr map[string]error
	html     string
	texts    map[string]string
	blocked  []string
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.calls = append(f.calls, "navigate "+url)
	return f.navErr
}

func (f *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	f.calls = append(f.calls, fmt.Sprintf("wait %s %v", selector, timeout))
	return f.waitErr
}

func (f *fakePage) Text(ctx context.Context, selector string) (string, bool, error) {
	f.calls = append(f.calls, "text "+selector)
	t, ok := f.texts[selector]
	return t, ok, nil
}

func (f *fakePage) HTML(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "html")
	return f.html, nil
}

func (f *fakePage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	f.calls = append(f.calls, "click "+selector)
	return f.clickErr[selector]
}

func (f *fakePage) Type(ctx context.Context, selector, text string, timeout time.Duration) error {
	f.calls = append(f.calls, fmt.Sprintf("type %s %s", selector, text))
	return nil
}

func (f *fakePage) Sleep(ctx context.Context, d time.Duration) error {
	f.calls = append(f.calls, fmt.Sprintf("sleep %v", d))
	return ctx.Err()
}

func (f *fakePage) BlockHosts(ctx context.Context, hosts []string) error {
	f.calls = append(f.calls, "block")
	f.blocked = append(f.blocked, hosts...)
	return nil
}
