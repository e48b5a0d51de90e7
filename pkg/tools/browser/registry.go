package browser

import (
	"github.com/entrhq/miru/pkg/agent/tools"
)

// NewTools returns the four page tools backed by gateway, in catalog order.
func NewTools(gateway *Gateway) []tools.Tool {
	return []tools.Tool{
		NewReadPageTool(gateway),
		NewClickElementTool(gateway),
		NewTypeTextTool(gateway),
		NewSearchTool(gateway),
	}
}

// RegisterTools adds the page tools to registry.
func RegisterTools(registry *tools.Registry, gateway *Gateway) error {
	for _, t := range NewTools(gateway) {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}
