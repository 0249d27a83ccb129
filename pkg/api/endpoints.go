package api

import (
	"bytes"
	"context"
	"time"

	"github.com/hazyhaar/touchstone-factors/pkg/analysis"
	"github.com/hazyhaar/touchstone-factors/pkg/kit"
	"github.com/hazyhaar/touchstone-factors/pkg/report"
	"github.com/hazyhaar/touchstone-factors/pkg/taxonomy"
)

// Shared request/response types used by both HTTP and MCP transports.

type analyzeReq struct {
	Text string `json:"text"`
}

type exportResponse struct {
	Data   []byte
	Result *analysis.Result
}

type termCount struct {
	Language taxonomy.Language `json:"language"`
	Terms    int               `json:"terms"`
}

type taxonomyInfo struct {
	Loaded    bool                `json:"loaded"`
	Source    string              `json:"source,omitempty"`
	LoadedAt  *time.Time          `json:"loaded_at,omitempty"`
	Entries   int                 `json:"entries"`
	Skipped   int                 `json:"skipped_rows"`
	Languages []taxonomy.Language `json:"languages"`
	Terms     []termCount         `json:"terms"`
	Threshold float64             `json:"threshold"`
}

func analyzeEndpoint(svc *analysis.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*analyzeReq)
		return svc.Analyze(ctx, req.Text)
	}
}

// exportEndpoint analyzes the text and renders the grouped rows as a workbook.
func exportEndpoint(svc *analysis.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*analyzeReq)
		res, err := svc.Analyze(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, res.Export); err != nil {
			return nil, err
		}
		return &exportResponse{Data: buf.Bytes(), Result: res}, nil
	}
}

func taxonomyInfoEndpoint(svc *analysis.Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		info := taxonomyInfo{
			Languages: []taxonomy.Language{},
			Terms:     []termCount{},
			Threshold: svc.Threshold(),
		}
		t := svc.Table()
		if t == nil {
			return info, nil
		}
		loadedAt := t.LoadedAt
		info.Loaded = true
		info.Source = t.Source
		info.LoadedAt = &loadedAt
		info.Entries = t.Len()
		info.Skipped = t.Skipped()
		info.Languages = t.AvailableLanguages()
		for _, lang := range info.Languages {
			info.Terms = append(info.Terms, termCount{Language: lang, Terms: t.TermCount(lang)})
		}
		return info, nil
	}
}
