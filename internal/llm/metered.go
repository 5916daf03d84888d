package llm

import "context"

// UsageFunc receives the approximate token count of one completed call.
type UsageFunc func(tokens int)

// MeteredProvider wraps a Provider and reports approximate per-call usage,
// letting the caller account spend against a run budget. Token counts are
// estimated at four characters per token over prompt, system messages, and
// completion; failed calls report nothing.
type MeteredProvider struct {
	inner  Provider
	record UsageFunc
}

// NewMeteredProvider wraps p so every successful call reports its usage.
func NewMeteredProvider(p Provider, record UsageFunc) *MeteredProvider {
	return &MeteredProvider{inner: p, record: record}
}

// Name identifies the wrapped provider.
func (p *MeteredProvider) Name() string {
	return p.inner.Name()
}

// Ask delegates to the wrapped provider and reports the estimated usage.
func (p *MeteredProvider) Ask(ctx context.Context, prompt string, systemMsgs ...string) (string, error) {
	rsp, err := p.inner.Ask(ctx, prompt, systemMsgs...)
	if err != nil {
		return "", err
	}

	chars := len(prompt) + len(rsp)
	for _, sys := range systemMsgs {
		chars += len(sys)
	}
	p.record(estimateTokens(chars))
	return rsp, nil
}

func estimateTokens(chars int) int {
	return (chars + 3) / 4
}
