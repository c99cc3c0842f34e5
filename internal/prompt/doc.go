// Package prompt turns deduplicated log output into chat messages for the
// explain command.
//
// The log context is rendered from dedup rows rather than raw lines: each
// run appears once with its repeat count, so a model sees the shape of a
// noisy log without reading every repeat. Label breakdowns from
// analyzer.LabelStats are appended when present.
//
//	msgs, err := prompt.Build(prompt.ModeExplain, prompt.Options{
//	    Rows:     rows,
//	    Labels:   breakdowns,
//	    MaxRows:  50,
//	    Strategy: dedup.StrategyNumbers,
//	})
//	if err != nil {
//	    return err
//	}
//	stream, err := provider.ChatStream(ctx, msgs, nil)
//
// Three modes are supported: [ModeExplain] for a general explanation,
// [ModeRootCause] for failure diagnosis and [ModeQuestion] for answering
// Options.Question.
package prompt
