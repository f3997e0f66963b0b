package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Goal-Orchestrator/agent/contract"
)

func AnalyzeMessage(in *GraphState, analyzer contractx.InterestAnalyzer, extractor contractx.InfoExtractor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Analysis = analyzer.AnalyzeMessage(in.Message, in.History)
	in.Extracted = extractor.ExtractInfo(in.Message)
	return in, nil
}
