package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every flag back to its default so invocations do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errb bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errb)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errb.String(), err
}

func mustRun(t *testing.T, args ...string) (string, string) {
	t.Helper()
	out, errOut, err := runCLI(t, "", args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out, errOut
}

// writeFixtures creates a customer export and a ticket export keyed by a
// differently named id column.
func writeFixtures(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	customers := filepath.Join(home, "customers.csv")
	tickets := filepath.Join(home, "tickets.csv")
	c := "customer_id,monthly_login_count,last_active_date,plan_type\n" +
		"C1,20,2024-03-01,pro\n" +
		"C2,2,2024-01-02,basic\n" +
		"C3,15,2024-02-25,pro\n" +
		"C4,1,2024-01-01,basic\n" +
		"C5,9,2024-02-10,basic\n" +
		"C6,30,2024-03-02,pro\n" +
		"C7,0,2024-01-03,basic\n" +
		"C8,12,2024-02-20,pro\n"
	k := "cust_id,ticket_count\n" +
		"C1,0\nC2,6\nC3,1\nC4,9\nC5,2\nC6,0\nC7,7\nC8,1\n"
	if err := os.WriteFile(customers, []byte(c), 0o644); err != nil {
		t.Fatalf("write customers: %v", err)
	}
	if err := os.WriteFile(tickets, []byte(k), 0o644); err != nil {
		t.Fatalf("write tickets: %v", err)
	}
	return customers, tickets
}

func TestCLI_MapPrintsMapping(t *testing.T) {
	customers, tickets := writeFixtures(t)
	out, _ := mustRun(t, "map", customers, tickets)

	var m map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("mapping is not JSON: %v\n%s", err, out)
	}
	if m["id_column"]["column"] != "customer_id" {
		t.Fatalf("unexpected id mapping: %v", m["id_column"])
	}
	if m["feature_tickets"]["column"] != "ticket_count" || m["feature_tickets"]["file_index"] != float64(1) {
		t.Fatalf("unexpected tickets mapping: %v", m["feature_tickets"])
	}
}

func TestCLI_MapMissingRequired(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "only.csv")
	if err := os.WriteFile(p, []byte("customer_id,logins\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "", "map", p)
	if err == nil || !strings.Contains(err.Error(), "could not find a column for required key") {
		t.Fatalf("expected missing-role error, got %v", err)
	}
}

func TestCLI_RejectsNonCSV(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "data.xlsx")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "", "run", p)
	if err == nil || !strings.Contains(err.Error(), "file must be a CSV file") {
		t.Fatalf("expected extension error, got %v", err)
	}
	_, _, err = runCLI(t, "", "run", filepath.Join(home, "missing.csv"))
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestCLI_RunWritesCSV(t *testing.T) {
	customers, tickets := writeFixtures(t)
	outPath := filepath.Join(filepath.Dir(customers), "out", "red.csv")
	out, _ := mustRun(t, "run", "--verbose", "-o", outPath, customers, tickets)

	if !strings.Contains(out, "Column mapping:") || !strings.Contains(out, "high-risk customers") {
		t.Fatalf("unexpected stdout:\n%s", out)
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if lines[0] != "Customer_ID,Churn_Probability,Churn_Risk_Status" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	for _, l := range lines[1:] {
		if !strings.HasSuffix(l, ",RED LIGHT") {
			t.Fatalf("non RED LIGHT row in output: %q", l)
		}
	}
}

func TestCLI_RunSeedIsReproducible(t *testing.T) {
	customers, tickets := writeFixtures(t)
	dir := filepath.Dir(customers)
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	mustRun(t, "run", "-f", "json", "--seed", "7", "-o", a, customers, tickets)
	mustRun(t, "run", "-f", "json", "--seed", "7", "-o", b, customers, tickets)

	read := func(p string) map[string]any {
		raw, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		var v map[string]any
		if err := json.Unmarshal(raw, &v); err != nil {
			t.Fatalf("bad json in %s: %v", p, err)
		}
		return v
	}
	ra, rb := read(a), read(b)
	if ra["total_customers"] != float64(8) {
		t.Fatalf("total_customers = %v", ra["total_customers"])
	}
	ja, _ := json.Marshal(ra["customers"])
	jb, _ := json.Marshal(rb["customers"])
	if string(ja) != string(jb) {
		t.Fatalf("same seed gave different results:\n%s\n%s", ja, jb)
	}
}

func TestCLI_PredictWithMapping(t *testing.T) {
	customers, tickets := writeFixtures(t)
	mapping, _ := mustRun(t, "map", customers, tickets)

	outPath := filepath.Join(filepath.Dir(customers), "report.html")
	mustRun(t, "predict", "--mapping", strings.TrimSpace(mapping), "-f", "html", "-o", outPath, customers, tickets)
	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(b), "Churn Risk Report") {
		t.Fatalf("html report missing title")
	}

	mapFile := filepath.Join(filepath.Dir(customers), "mapping.json")
	mustRun(t, "map", "-o", mapFile, customers, tickets)
	mustRun(t, "predict", "--mapping-file", mapFile, "-o", filepath.Join(filepath.Dir(customers), "p.csv"), customers, tickets)
}

func TestCLI_PredictRejectsBadMapping(t *testing.T) {
	customers, tickets := writeFixtures(t)
	cases := [][]string{
		{"predict", customers, tickets},
		{"predict", "--mapping", "{not json", customers, tickets},
		{"predict", "--mapping", `{"id_column":{"column":"customer_id","file_index":5}}`, customers, tickets},
		{"predict", "--mapping", `{"id_column":{"column":"customer_id","file_index":0}}`, customers, tickets},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, "", args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestCLI_RunMissingColumnWarns(t *testing.T) {
	customers, tickets := writeFixtures(t)
	mapping := `{"id_column":{"column":"customer_id","file_index":0},` +
		`"feature_logins":{"column":"monthly_login_count","file_index":0},` +
		`"feature_tickets":{"column":"ticket_count","file_index":1},` +
		`"feature_activity_days":{"column":"last_active_date","file_index":0},` +
		`"feature_ltv":{"column":"lifetime_value","file_index":1}}`
	outPath := filepath.Join(filepath.Dir(customers), "w.csv")
	_, errOut := mustRun(t, "predict", "--mapping", mapping, "-o", outPath, customers, tickets)
	if !strings.Contains(errOut, "⚠ Warning: Column 'lifetime_value' not found in file 1, skipping...") {
		t.Fatalf("expected skip warning on stderr, got:\n%s", errOut)
	}
}

func TestCLI_FatalRunStillPrintsSkipWarnings(t *testing.T) {
	customers, tickets := writeFixtures(t)
	mapping := `{"id_column":{"column":"customer_id","file_index":0},` +
		`"feature_logins":{"column":"monthly_login_count","file_index":0},` +
		`"feature_tickets":{"column":"support_cases","file_index":1},` +
		`"feature_activity_days":{"column":"last_active_date","file_index":0}}`
	outPath := filepath.Join(filepath.Dir(customers), "fatal.csv")
	_, errOut, err := runCLI(t, "", "predict", "--mapping", mapping, "-o", outPath, customers, tickets)
	if err == nil || !strings.Contains(err.Error(), "feature_tickets") {
		t.Fatalf("expected missing feature error, got %v", err)
	}
	if !strings.Contains(errOut, "⚠ Warning: Column 'support_cases' not found in file 1, skipping...") {
		t.Fatalf("skip warning not printed before the error, stderr:\n%s", errOut)
	}
	if _, statErr := os.Stat(outPath); statErr == nil {
		t.Fatalf("no output expected after a fatal error")
	}
}

func TestCLI_InspectEscapesPipes(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p := filepath.Join(home, "pipes.csv")
	if err := os.WriteFile(p, []byte("customer_id,a|b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _ := mustRun(t, "inspect", p)
	if !strings.Contains(out, `| a\|b |  |`) {
		t.Fatalf("pipe in header not escaped:\n%s", out)
	}
}

func TestCLI_RunPromptsForFiles(t *testing.T) {
	customers, tickets := writeFixtures(t)
	outPath := filepath.Join(filepath.Dir(customers), "prompt.csv")
	stdin := customers + "\nnope.txt\n" + tickets + "\n\n"
	out, _, err := runCLI(t, stdin, "run", "-o", outPath)
	if err != nil {
		t.Fatalf("interactive run failed: %v", err)
	}
	if !strings.Contains(out, "Collected 2 file(s)") {
		t.Fatalf("unexpected prompt output:\n%s", out)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}

func TestCLI_InspectListsRoles(t *testing.T) {
	customers, tickets := writeFixtures(t)
	htmlPath := filepath.Join(filepath.Dir(customers), "inspect.html")
	out, _ := mustRun(t, "inspect", "--html", htmlPath, customers, tickets)
	for _, want := range []string{
		"| customer_id | id_column |",
		"| ticket_count | feature_tickets |",
		"| plan_type | feature_contract_length |",
		"- id_column (required): customer_id in file 0",
		"- feature_ltv: not found",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("inspect output missing %q:\n%s", want, out)
		}
	}
	b, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !strings.Contains(string(b), "<table>") {
		t.Fatalf("expected an html table, got:\n%s", b)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "cfg.yaml")

	mustRun(t, "--config", cfgPath, "config", "set", "risk_threshold", "0.6")
	out, _ := mustRun(t, "--config", cfgPath, "config", "show")
	if !strings.Contains(out, "risk_threshold: 0.6") {
		t.Fatalf("config show missing updated value:\n%s", out)
	}
	if _, _, err := runCLI(t, "", "--config", cfgPath, "config", "set", "output_format", "xlsx"); err == nil {
		t.Fatalf("expected invalid output_format error")
	}
}

func TestCLI_Version(t *testing.T) {
	out, _ := mustRun(t, "--version")
	if !strings.Contains(out, "churnguard version "+Version) {
		t.Fatalf("unexpected version output %q", out)
	}
}
