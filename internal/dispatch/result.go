package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Result is a validated classification produced by the worker.
type Result struct {
	Classification  string             `json:"classification"`
	ConfidenceScore float64            `json:"confidence_score"`
	ReportFile      string             `json:"report_file"`
	Severity        *string            `json:"severity,omitempty"`
	Probabilities   map[string]float64 `json:"probabilities,omitempty"`
}

type payload struct {
	Classification  *string          `json:"classification"`
	ConfidenceScore *score           `json:"confidence_score"`
	ReportFile      *string          `json:"report_file"`
	Severity        *string          `json:"severity"`
	Probabilities   map[string]score `json:"probabilities"`
}

// score accepts a JSON number or a percent string such as "87.5%".
type score float64

func (s *score) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*s = score(f)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("score must be a number or percent string")
	}

	str = strings.TrimSpace(str)
	divisor := 1.0
	if trimmed, ok := strings.CutSuffix(str, "%"); ok {
		str = strings.TrimSpace(trimmed)
		divisor = 100
	}

	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return fmt.Errorf("invalid score %q", str)
	}

	*s = score(f / divisor)
	return nil
}

// parseResult decodes worker stdout into a Result. The output must be exactly
// one JSON object carrying the required fields, and every score must be a
// finite value in [0, 1].
func parseResult(stdout []byte) (*Result, error) {
	if len(bytes.TrimSpace(stdout)) == 0 {
		return nil, &Error{Kind: KindNoOutput, Message: "worker produced no output"}
	}

	dec := json.NewDecoder(bytes.NewReader(stdout))

	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Message: "output is not a JSON object", Err: err}
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &Error{Kind: KindMalformedOutput, Message: "unexpected data after JSON object"}
	}

	if missing := p.missing(); len(missing) > 0 {
		return nil, &Error{
			Kind:    KindMalformedOutput,
			Message: "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	confidence := float64(*p.ConfidenceScore)
	if !inUnitRange(confidence) {
		return nil, &Error{
			Kind:    KindInvalidResult,
			Message: fmt.Sprintf("confidence_score %v outside [0, 1]", confidence),
		}
	}

	result := &Result{
		Classification:  *p.Classification,
		ConfidenceScore: confidence,
		ReportFile:      *p.ReportFile,
		Severity:        p.Severity,
	}

	if len(p.Probabilities) > 0 {
		result.Probabilities = make(map[string]float64, len(p.Probabilities))
		for label, v := range p.Probabilities {
			if !inUnitRange(float64(v)) {
				return nil, &Error{
					Kind:    KindInvalidResult,
					Message: fmt.Sprintf("probability %q = %v outside [0, 1]", label, float64(v)),
				}
			}
			result.Probabilities[label] = float64(v)
		}
	}

	return result, nil
}

func (p *payload) missing() []string {
	var fields []string
	if p.Classification == nil || strings.TrimSpace(*p.Classification) == "" {
		fields = append(fields, "classification")
	}
	if p.ConfidenceScore == nil {
		fields = append(fields, "confidence_score")
	}
	if p.ReportFile == nil || strings.TrimSpace(*p.ReportFile) == "" {
		fields = append(fields, "report_file")
	}
	return fields
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
