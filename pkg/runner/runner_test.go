package runner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ormasoftchile/jsontest/pkg/document"
	"github.com/ormasoftchile/jsontest/pkg/fetch"
	"github.com/ormasoftchile/jsontest/pkg/fixture"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fixture.NewHandler(fixture.DefaultRoutes(), nil))
	t.Cleanup(srv.Close)
	return srv
}

// requestTest renders a request-mode test against base.
func requestTest(base, path, response string) string {
	return "var: {base: \"" + base + "\"}\n" +
		"request: {url: \"${base}" + path + "\"}\n" +
		"response: " + response + "\n"
}

type fetcherFunc func(ctx context.Context, request document.Value) (document.Value, error)

func (f fetcherFunc) Fetch(ctx context.Context, request document.Value) (document.Value, error) {
	return f(ctx, request)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Begin(n Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "begin "+filepath.Base(n.Path()))
}

func (r *recorder) End(n Node, _ Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "end "+filepath.Base(n.Path()))
}

func runPath(t *testing.T, r *Runner, path string) Result {
	t.Helper()
	return r.Run(context.Background(), path, NopReporter{})
}

func TestSingle_RequestMode(t *testing.T) {
	srv := newServer(t)
	r := &Runner{Fetcher: fetch.New(0)}
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		match    bool
		response string
	}{
		{"ok", requestTest(srv.URL, "/ok", "{body: {success: true}}"), true, `{"body":{"success":true}}`},
		{"empty body", requestTest(srv.URL, "/empty", "{}"), true, `{}`},
		{"missing", requestTest(srv.URL, "/missing", "{error: \"404\"}"), false, `{"status":"404"}`},
		{"missing as status", requestTest(srv.URL, "/missing", "{status: \"404\"}"), true, `{"status":"404"}`},
		{"invalid json", requestTest(srv.URL, "/not_json", "{body: {}}"), false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			res, ok := runPath(t, r, path).(*FileResult)
			if !ok {
				t.Fatalf("result = %T, want *FileResult", res)
			}
			if res.Match != tt.match {
				t.Errorf("Match = %v, want %v", res.Match, tt.match)
			}
			got, _ := res.Actual.Get("response")
			if tt.response != "" && got.String() != tt.response {
				t.Errorf("actual response = %s, want %s", got, tt.response)
			}
			if tt.response == "" {
				if _, ok := got.Get(fetch.KeyError); !ok {
					t.Errorf("actual response = %s, want an error", got)
				}
			}
		})
	}
}

func TestSingle_ExpectIsResolved(t *testing.T) {
	srv := newServer(t)
	path := writeFile(t, t.TempDir(), "t.yaml", requestTest(srv.URL, "/ok", "{body: {success: true}}"))
	res := runPath(t, &Runner{Fetcher: fetch.New(0)}, path).(*FileResult)
	req, _ := res.Expect.Get("request")
	url, _ := req.Get("url")
	if url.Text() != srv.URL+"/ok" {
		t.Errorf("expect url = %q", url.Text())
	}
	// Keys other than response are carried through unchanged.
	if diff := cmp.Diff(res.Expect.Map().Keys(), res.Actual.Map().Keys()); diff != "" {
		t.Errorf("keys differ (-expect +actual):\n%s", diff)
	}
}

func TestSingle_Empty(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Fetcher: fetcherFunc(func(context.Context, document.Value) (document.Value, error) {
		t.Error("empty tests must not fetch")
		return document.Null(), nil
	})}
	for _, src := range []string{"", "{}", "null", "a: 1\n---\nb: 2\n"} {
		path := writeFile(t, dir, "empty.yaml", src)
		res, ok := runPath(t, r, path).(*FileResult)
		if !ok || !res.Skipped || !res.Passed() {
			t.Errorf("%q: result = %#v, want skipped", src, res)
		}
	}
}

func TestSingle_LoadError(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Fetcher: fetch.New(0)}
	for _, src := range []string{"[1, 2]", "a: [1\n", "{var: [1]}", "{var: x, request: {url: \"http://x\"}}"} {
		path := writeFile(t, dir, "bad.yaml", src)
		res, ok := runPath(t, r, path).(*ErrorResult)
		if !ok {
			t.Errorf("%q: result = %T, want *ErrorResult", src, res)
			continue
		}
		if !strings.HasPrefix(res.Message, "failed to load test: ") {
			t.Errorf("%q: message = %q", src, res.Message)
		}
	}
}

func TestSingle_UnresolvedVariable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "t.yaml", `
var: {a: 1}
request: {url: "${b}"}
response: {error: "unresolved variable: ${b}"}
`)
	r := &Runner{Fetcher: fetcherFunc(func(context.Context, document.Value) (document.Value, error) {
		t.Error("unresolved tests must not fetch")
		return document.Null(), nil
	})}
	res := runPath(t, r, path).(*FileResult)
	if !res.Match {
		t.Errorf("expected the resolution error to be compared; actual = %s", res.Actual)
	}
}

func TestSingle_EvalMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.yaml", "var: {x: 1, name: bob}\nvalue: \"${x}\"\ngreeting: \"hi ${name}\"\n")
	writeFile(t, dir, "calc.yaml.eval", "{var: {x: 1, name: bob}, value: 1, greeting: hi bob}\n")

	r := &Runner{Fetcher: fetcherFunc(func(context.Context, document.Value) (document.Value, error) {
		t.Error("eval tests must not fetch")
		return document.Null(), nil
	})}
	res := runPath(t, r, path).(*FileResult)
	if !res.Match {
		t.Errorf("eval mismatch: expect %s, actual %s", res.Expect, res.Actual)
	}

	writeFile(t, dir, "calc.yaml.eval", "{var: {x: 1, name: bob}, value: \"1\", greeting: hi bob}\n")
	if res := runPath(t, r, path).(*FileResult); res.Match {
		t.Error("a whole placeholder keeps the variable's type")
	}
}

func TestSingle_EvalModeEmptyTest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.yaml", "")
	writeFile(t, dir, "blank.yaml.eval", "")
	res := runPath(t, &Runner{}, path).(*FileResult)
	if !res.Match || res.Skipped {
		t.Errorf("null against null should match: %#v", res)
	}
}

func TestSingle_EvalModeUnresolvedVariable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "t.yaml", "var: {a: 1}\nvalue: \"${b}\"\n")
	writeFile(t, dir, "t.yaml.eval", `
var: {a: 1}
value: "${b}"
response: {error: "unresolved variable: ${b}"}
`)
	res, ok := runPath(t, &Runner{}, path).(*FileResult)
	if !ok {
		t.Fatalf("result = %T, want *FileResult", res)
	}
	if !res.Match {
		t.Errorf("expected the resolution error to be compared; actual = %s", res.Actual)
	}
	got, _ := res.Actual.Get("response")
	if want := `{"error":"unresolved variable: ${b}"}`; got.String() != want {
		t.Errorf("actual response = %s, want %s", got, want)
	}
}

func TestSingle_EvalModeIgnoresRequestShape(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "e.yaml", "request: {}\nx: 1\n")
	writeFile(t, dir, "e.yaml.eval", "{request: {}, x: 1}\n")
	res, ok := runPath(t, &Runner{}, path).(*FileResult)
	if !ok {
		t.Fatalf("result = %T, want *FileResult", res)
	}
	if !res.Match {
		t.Errorf("eval mismatch: expect %s, actual %s", res.Expect, res.Actual)
	}
}

func TestSingle_RequestShape(t *testing.T) {
	dir := t.TempDir()
	var fetched []string
	r := &Runner{Fetcher: fetcherFunc(func(_ context.Context, req document.Value) (document.Value, error) {
		u, err := fetch.URL(req)
		if err != nil {
			t.Errorf("fetcher got an invalid request: %v", err)
		}
		fetched = append(fetched, u)
		return document.Object(), nil
	})}

	tests := []struct {
		name     string
		src      string
		response string
	}{
		{"placeholder request", "var: {req: {url: \"http://x\"}}\nrequest: \"${req}\"\nresponse: {}\n", `{}`},
		{"missing url", "request: {}\nresponse: {}\n", `{"error":"request.url is required"}`},
		{"url not string", "request: {url: 5}\nresponse: {}\n", `{"error":"request.url must be a string, got number"}`},
		{"request scalar", "request: \"http://x\"\nresponse: {}\n", `{"error":"request must be a mapping with a url"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.src)
			res, ok := runPath(t, r, path).(*FileResult)
			if !ok {
				t.Fatalf("result = %T, want *FileResult", res)
			}
			got, _ := res.Actual.Get("response")
			if got.String() != tt.response {
				t.Errorf("actual response = %s, want %s", got, tt.response)
			}
		})
	}
	if diff := cmp.Diff([]string{"http://x"}, fetched); diff != "" {
		t.Errorf("fetched (-want +got):\n%s", diff)
	}
}

func TestSingle_Skip(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Fetcher: fetcherFunc(func(context.Context, document.Value) (document.Value, error) {
		return document.Object(), nil
	})}
	tests := []struct {
		src     string
		skipped bool
	}{
		{"skip: true\nrequest: {url: \"http://x\"}\n", true},
		{"var: {flag: true}\nskip: \"${flag}\"\nrequest: {url: \"http://x\"}\n", true},
		{"var: {n: 2}\nskip: \"n > 3\"\nrequest: {url: \"http://x\"}\nresponse: {}\n", false},
	}
	for _, tt := range tests {
		path := writeFile(t, dir, "s.yaml", tt.src)
		res, ok := runPath(t, r, path).(*FileResult)
		if !ok {
			t.Fatalf("%q: result = %T", tt.src, res)
		}
		if res.Skipped != tt.skipped {
			t.Errorf("%q: Skipped = %v, want %v", tt.src, res.Skipped, tt.skipped)
		}
	}

	path := writeFile(t, dir, "bad.yaml", "skip: \"nope >\"\nrequest: {url: \"http://x\"}\n")
	if _, ok := runPath(t, r, path).(*ErrorResult); !ok {
		t.Error("an invalid skip condition should be an error")
	}
}

func TestGroup_IsolatesFailures(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", requestTest(srv.URL, "/ok", "{body: {success: true}}"))
	writeFile(t, dir, "b.yaml", requestTest(srv.URL, "/ok", "{body: {success: false}}"))
	writeFile(t, dir, "c.yaml", requestTest(srv.URL, "/login_success", "{body: {success: true, message: login success}}"))
	writeFile(t, dir, ".hidden.yaml", "[not, a, test]")
	writeFile(t, dir, "orphan.eval", "x: 1")

	res, ok := runPath(t, &Runner{Fetcher: fetch.New(0)}, dir).(*GroupResult)
	if !ok {
		t.Fatalf("result = %T, want *GroupResult", res)
	}
	var got []bool
	for _, c := range res.Children {
		got = append(got, c.Passed())
	}
	if diff := cmp.Diff([]bool{true, false, true}, got); diff != "" {
		t.Errorf("children (-want +got):\n%s", diff)
	}
	if res.Passed() {
		t.Error("group should fail when a child fails")
	}
	want := Summary{Total: 3, Passed: 2, Failed: 1}
	if diff := cmp.Diff(want, Tally(res)); diff != "" {
		t.Errorf("Tally (-want +got):\n%s", diff)
	}
}

func TestGroup_Nested(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/empty.yaml", "")
	writeFile(t, dir, "top.yaml", "")
	res := runPath(t, &Runner{}, dir).(*GroupResult)
	if len(res.Children) != 2 {
		t.Fatalf("children = %d", len(res.Children))
	}
	sub, ok := res.Children[0].(*GroupResult)
	if !ok || len(sub.Children) != 1 {
		t.Fatalf("first child = %#v, want sub group", res.Children[0])
	}
	if !res.Passed() {
		t.Error("skipped tests pass")
	}
	if got := Tally(res); got.Skipped != 2 || got.Total != 2 {
		t.Errorf("Tally = %+v", got)
	}
}

func TestGroup_EmptyPasses(t *testing.T) {
	res := runPath(t, &Runner{}, t.TempDir()).(*GroupResult)
	if !res.Passed() || len(res.Children) != 0 {
		t.Errorf("empty group = %#v", res)
	}
}

func TestGroup_ListFailure(t *testing.T) {
	g := &TestGroup{path: filepath.Join(t.TempDir(), "gone"), runner: &Runner{}}
	rec := &recorder{}
	res, ok := g.Run(context.Background(), rec).(*ErrorResult)
	if !ok {
		t.Fatalf("result = %T, want *ErrorResult", res)
	}
	if !strings.HasPrefix(res.Message, "failed to list tests: ") {
		t.Errorf("message = %q", res.Message)
	}
	if diff := cmp.Diff([]string{"begin gone", "end gone"}, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestRunner_CreateErrors(t *testing.T) {
	r := &Runner{}
	if _, err := r.Create(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not exist", err)
	}
	res := r.Run(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), NopReporter{})
	if res.Passed() {
		t.Error("a missing path must not pass")
	}
}

func TestReporter_Order(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "sub/b.yaml", "")
	rec := &recorder{}
	base := filepath.Base(dir)
	(&Runner{}).Run(context.Background(), dir, rec)
	want := []string{
		"begin " + base,
		"begin a.yaml", "end a.yaml",
		"begin sub",
		"begin b.yaml", "end b.yaml",
		"end sub",
		"end " + base,
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestGroup_PanicIsolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "request: {url: \"http://boom\"}\n")
	writeFile(t, dir, "b.yaml", "request: {url: \"http://fine\"}\nresponse: {}\n")
	r := &Runner{Fetcher: fetcherFunc(func(_ context.Context, req document.Value) (document.Value, error) {
		if u, _ := fetch.URL(req); u == "http://boom" {
			panic("kaboom")
		}
		return document.Object(), nil
	})}
	rec := &recorder{}
	res := r.Run(context.Background(), dir, rec).(*GroupResult)
	errRes, ok := res.Children[0].(*ErrorResult)
	if !ok || !strings.Contains(errRes.Message, "kaboom") {
		t.Errorf("first child = %#v, want panic error", res.Children[0])
	}
	if !res.Children[1].Passed() {
		t.Error("sibling of a panicking test should still run and pass")
	}
	if n := strings.Count(strings.Join(rec.events, "\n"), "end a.yaml"); n != 1 {
		t.Errorf("panicking test reported %d times", n)
	}
}

func TestGroup_ConcurrencyKeepsOrder(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	names := []string{"a.yaml", "b.yaml", "c.yaml", "d.yaml", "e.yaml", "f.yaml"}
	for i, n := range names {
		resp := "{body: {success: true}}"
		if i%2 == 1 {
			resp = "{body: {success: false}}"
		}
		writeFile(t, dir, n, requestTest(srv.URL, "/ok", resp))
	}
	writeFile(t, dir, "sub/g.yaml", requestTest(srv.URL, "/ok", "{body: {success: true}}"))

	rec := &recorder{}
	res := (&Runner{Fetcher: fetch.New(0), Concurrency: 3}).Run(context.Background(), dir, rec).(*GroupResult)
	var got []string
	for _, c := range res.Children {
		got = append(got, filepath.Base(c.TestPath()))
	}
	if diff := cmp.Diff(append(names, "sub"), got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	for i, c := range res.Children[:len(names)] {
		if c.Passed() != (i%2 == 0) {
			t.Errorf("%s passed = %v", names[i], c.Passed())
		}
	}
	if len(rec.events) != 2*(len(names)+3) {
		t.Errorf("events = %d", len(rec.events))
	}
}

func TestExamples_Eval(t *testing.T) {
	res := runPath(t, &Runner{}, filepath.Join("..", "..", "examples", "eval"))
	if !res.Passed() {
		t.Errorf("examples/eval failed: %#v", res)
	}
	if got := Tally(res); got.Passed != 1 {
		t.Errorf("Tally = %+v", got)
	}
}

func TestResult_JSONCarriesType(t *testing.T) {
	res := &GroupResult{Path: "suite", Children: []Result{
		&ErrorResult{Path: "suite/bad.yaml", Message: "failed to load test: boom"},
		&FileResult{Path: "suite/ok.yaml", Expect: document.Object(), Actual: document.Object(), Match: true},
	}}
	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Type     string `json:"type"`
		Path     string `json:"path"`
		Children []struct {
			Type    string `json:"type"`
			Path    string `json:"path"`
			Message string `json:"message"`
			Match   bool   `json:"match"`
		} `json:"children"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	if got.Type != TypeGroup || got.Path != "suite" || len(got.Children) != 2 {
		t.Fatalf("group = %s", data)
	}
	if c := got.Children[0]; c.Type != TypeError || c.Message != "failed to load test: boom" {
		t.Errorf("error child = %+v", c)
	}
	if c := got.Children[1]; c.Type != TypeFile || !c.Match || c.Path != "suite/ok.yaml" {
		t.Errorf("file child = %+v", c)
	}
}
