package bridge

import (
	"context"
	"errors"
	"fmt"

	"benchmarkbox/adapters"
	"benchmarkbox/internal/types"
)

// Actions understood by Handle
const (
	ActionExtractProductInfo = "extractProductInfo"
	ActionExtractCurrentTab  = "extractCurrentTab"
	ActionOpenTab            = "openTab"
	ActionShowNotification   = "showNotification"
)

// Message is a request sent by the popup or a content script
type Message struct {
	Action  string `json:"action" binding:"required"`
	URL     string `json:"url,omitempty"`
	HTML    string `json:"html,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}

// Response answers a Message
type Response struct {
	Success bool                 `json:"success"`
	Product *types.ProductRecord `json:"product,omitempty"`
	Tab     *Tab                 `json:"tab,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Handle dispatches msg by its action. Unknown actions return ErrUnknownAction;
// every other failure is reported inside the Response.
func (b *Bridge) Handle(ctx context.Context, msg Message) (Response, error) {
	switch msg.Action {
	case ActionExtractProductInfo:
		return b.handleExtractProductInfo(ctx, msg), nil

	case ActionExtractCurrentTab:
		record, err := b.ExtractCurrentTab(ctx)
		if err != nil {
			return Response{Error: err.Error()}, nil
		}
		return Response{Success: true, Product: &record}, nil

	case ActionOpenTab:
		tab, err := b.binding.OpenTab(ctx, msg.URL)
		if err != nil {
			return Response{Error: err.Error()}, nil
		}
		return Response{Success: true, Tab: tab}, nil

	case ActionShowNotification:
		if err := b.binding.Notify(ctx, msg.Title, msg.Message); err != nil {
			return Response{Error: err.Error()}, nil
		}
		return Response{Success: true}, nil

	default:
		return Response{}, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
}

// handleExtractProductInfo runs the extractor on HTML carried by the message,
// or on the page at msg.URL when no HTML is supplied.
func (b *Bridge) handleExtractProductInfo(ctx context.Context, msg Message) Response {
	if msg.HTML == "" {
		if msg.URL == "" {
			return Response{Error: "html or url is required"}
		}
		if !IsCapturable(msg.URL) {
			return Response{Error: ErrUnsupportedPage.Error()}
		}
		record := b.ExtractFromTab(ctx, Tab{URL: msg.URL, Title: msg.Title})
		return Response{Success: true, Product: &record}
	}

	page, err := adapters.NewDocumentPage(msg.HTML, msg.URL)
	if err != nil {
		return Response{Error: err.Error()}
	}
	record := b.extractor.ExtractProductInfo(page)
	return Response{Success: true, Product: &record}
}

// IsUserError reports whether err comes from a bad request rather than a failure
func IsUserError(err error) bool {
	return errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrUnsupportedPage)
}
