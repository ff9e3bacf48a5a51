package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/churnguard-cli/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	preds := []pipeline.Prediction{
		{CustomerID: "C1", Probability: 0.912, Status: pipeline.RedLight},
		{CustomerID: "C2", Probability: 0.2, Status: pipeline.GreenYellow},
		{CustomerID: "C<3>", Probability: 0.8, Status: pipeline.RedLight},
	}
	return &pipeline.Result{
		RunID:       "run-1",
		Rows:        3,
		Features:    []string{"logins", "tickets"},
		LabelSource: pipeline.LabelsSynthetic,
		Positives:   1,
		Predictions: preds,
		RedLight:    pipeline.RedLightOnly(preds),
		Warnings:    []string{"Column 'ltv' not found in file 1, skipping..."},
	}
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"csv", "JSON", " html "} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("xlsx")
	assert.ErrorContains(t, err, "unsupported format")
	assert.Equal(t, ".json", FormatJSON.Ext())
}

func TestWriteCSVOnlyRedLight(t *testing.T) {
	s := NewSummary(sampleResult(), []string{"a.csv"}, 0.75)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, s))
	want := "Customer_ID,Churn_Probability,Churn_Risk_Status\n" +
		"C1,0.912,RED LIGHT\n" +
		"C<3>,0.800,RED LIGHT\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmpty(t *testing.T) {
	res := sampleResult()
	res.RedLight = nil
	s := NewSummary(res, nil, 0.75)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s.Customers))
	assert.Equal(t, "Customer_ID,Churn_Probability,Churn_Risk_Status\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	s := NewSummary(sampleResult(), []string{"a.csv", "b.csv"}, 0.75)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, s))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.EqualValues(t, 3, got["total_customers"])
	assert.EqualValues(t, 2, got["red_light_count"])
	customers := got["customers"].([]any)
	require.Len(t, customers, 2)
	first := customers[0].(map[string]any)
	assert.Equal(t, "C1", first["customer_id"])
	assert.Equal(t, "RED LIGHT", first["churn_risk_status"])
}

func TestWriteHTMLEscapes(t *testing.T) {
	s := NewSummary(sampleResult(), []string{"a.csv"}, 0.75)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatHTML, s))
	out := buf.String()
	assert.True(t, strings.HasPrefix(strings.ToLower(out), "<!doctype html>"))
	assert.Contains(t, out, "<title>Churn Risk Report</title>")
	assert.Contains(t, out, "C&lt;3&gt;")
	assert.Contains(t, out, "0.912")
	assert.Contains(t, out, "not found in file 1")
	assert.NotContains(t, out, "C2")

	res := sampleResult()
	res.RedLight = nil
	buf.Reset()
	require.NoError(t, WriteHTML(&buf, NewSummary(res, nil, 0.75)))
	assert.Contains(t, buf.String(), "No customers above the risk threshold.")
}

func TestSaveFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "reports", "out.csv")
	require.NoError(t, SaveFile(p, FormatCSV, NewSummary(sampleResult(), nil, 0.75)))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(b), "\n"))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPDF, NewSummary(sampleResult(), []string{"a.csv"}, 0.75)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	res := sampleResult()
	res.RedLight = nil
	res.Warnings = nil
	buf.Reset()
	require.NoError(t, WritePDF(&buf, NewSummary(res, nil, 0.75)))
	assert.NotZero(t, buf.Len())
}
