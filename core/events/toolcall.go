package events

const (
	// KindToolCalled identifies a backend-side tool invocation notice.
	KindToolCalled Kind = "tool_call.called"
)

// ToolCalled reports a tool invocation observed on the response stream.
type ToolCalled struct {
	Base
	Name   string
	Params map[string]any
	Result string
}

func NewToolCalled(name string, params map[string]any, result string) ToolCalled {
	return ToolCalled{Base: NewBase(KindToolCalled), Name: name, Params: params, Result: result}
}
