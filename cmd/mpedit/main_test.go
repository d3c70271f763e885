package main

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// {"name":"test","value":123}
const sampleHex = "82a46e616d65a474657374a576616c75657b"

func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--no-color"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecode(t *testing.T) {
	out, errOut, code := runCLI(t, sampleHex, "decode", "--hex")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if out != "{\"name\":\"test\",\"value\":123}\n" {
		t.Fatalf("stdout = %q", out)
	}

	path := writeFile(t, "sample.mp", must(hex.DecodeString(sampleHex)))
	out, _, code = runCLI(t, "", "decode", "--pretty", path)
	if code != 0 || out != "{\n  \"name\": \"test\",\n  \"value\": 123\n}\n" {
		t.Fatalf("decode --pretty = %d %q", code, out)
	}
}

func TestDecode_BadInput(t *testing.T) {
	_, errOut, code := runCLI(t, "c1", "decode", "--hex")
	if code != 1 || !strings.Contains(errOut, "unrecognized type byte") {
		t.Fatalf("exit = %d, stderr = %q", code, errOut)
	}
	_, errOut, code = runCLI(t, "zz", "decode", "--hex")
	if code != 1 || !strings.Contains(errOut, "decode hex") {
		t.Fatalf("exit = %d, stderr = %q", code, errOut)
	}
}

func TestInspect(t *testing.T) {
	out, errOut, code := runCLI(t, sampleHex, "inspect", "--hex", "--byte", "17")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	for _, want := range []string{"path:   $.value\n", "kind:   int (positive-fixint)\n", "bytes:  17..18\n", "value:  123\n", "00000010: 65 7b\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout = %s\nwanted it to contain %q", out, want)
		}
	}

	// formatted text: {\n  "name": "test",...
	out, _, code = runCLI(t, sampleHex, "inspect", "--hex", "--text", "12")
	if code != 0 || !strings.Contains(out, "path:   $.name\n") {
		t.Fatalf("inspect --text = %d %s", code, out)
	}

	_, errOut, code = runCLI(t, sampleHex, "inspect", "--hex")
	if code != 1 || !strings.Contains(errOut, "exactly one of") {
		t.Fatalf("inspect without offset = %d %q", code, errOut)
	}
	_, errOut, code = runCLI(t, sampleHex, "inspect", "--hex", "--byte", "99")
	if code != 1 || !strings.Contains(errOut, "no value") {
		t.Fatalf("inspect out of range = %d %q", code, errOut)
	}
}

func TestDump(t *testing.T) {
	out, errOut, code := runCLI(t, sampleHex, "dump", "--hex")
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if !strings.HasPrefix(out, "map bytes=0..18 text=0..27 $ (2 pairs)\n") {
		t.Fatalf("stdout = %s", out)
	}
	if !strings.Contains(out, "  int/positive-fixint bytes=17..18 text=23..26 $.value = 123\n") {
		t.Fatalf("stdout = %s", out)
	}
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, "doc.mp", must(hex.DecodeString(sampleHex)))
	edited := writeFile(t, "edited.json", []byte("{\n  \"name\": \"test\", // unchanged\n  \"value\": 124\n}\n"))
	outPath := filepath.Join(dir, "out.mp")
	histPath := filepath.Join(dir, "history.db")

	_, errOut, code := runCLI(t, "", "rebuild", "--edited", edited, "--out", outPath, "--history", histPath, "--diff", input)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	got := must(os.ReadFile(outPath))
	want := must(hex.DecodeString("82a46e616d65a474657374a576616c75657c"))
	if !bytes.Equal(got, want) {
		t.Fatalf("output = %x, wanted %x", got, want)
	}
	if !strings.Contains(errOut, `"value": 12`) {
		t.Fatalf("diff = %q, wanted the formatted text", errOut)
	}

	out, errOut, code := runCLI(t, "", "history", "--history", histPath, "doc.mp")
	if code != 0 {
		t.Fatalf("history exit = %d, stderr = %s", code, errOut)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 1 || !strings.HasPrefix(strings.TrimSpace(lines[0]), "1 ") {
		t.Fatalf("history = %q, wanted one entry", out)
	}

	out, _, code = runCLI(t, "", "history", "--history", histPath, "--show", "1", "doc.mp")
	if code != 0 || !strings.Contains(out, `"value": 124`) {
		t.Fatalf("history --show = %d %q", code, out)
	}
}

func TestRebuild_HexOut(t *testing.T) {
	edited := writeFile(t, "edited.json", []byte(`[1, 2, 3]`))
	out, errOut, code := runCLI(t, "9201cd0002", "rebuild", "--hex", "--edited", edited)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut)
	}
	if out != "93010203\n" {
		t.Fatalf("stdout = %q, wanted 93010203", out)
	}
}

func TestUsage(t *testing.T) {
	_, errOut, code := runCLI(t, "")
	if code != 2 || !strings.Contains(errOut, "commands:") {
		t.Fatalf("no args = %d %q", code, errOut)
	}
	_, errOut, code = runCLI(t, "", "bogus")
	if code != 2 || !strings.Contains(errOut, `unknown command "bogus"`) {
		t.Fatalf("bogus = %d %q", code, errOut)
	}
	_, _, code = runCLI(t, "", "decode", "--help")
	if code != 0 {
		t.Fatalf("decode --help = %d, wanted 0", code)
	}
}

func TestHighlight(t *testing.T) {
	if got := highlight("abcdef", 2, 4); !strings.Contains(got, "cd") || !strings.HasPrefix(got, "ab") || !strings.HasSuffix(got, "ef") {
		t.Fatalf("highlight = %q", got)
	}
	if got := highlight("abc", -5, 99); !strings.Contains(got, "abc") {
		t.Fatalf("highlight with wild offsets = %q", got)
	}
	dump := hexDump(bytes.Repeat([]byte{0xab}, 17), 0, 0)
	if dump != "00000000: ab ab ab ab ab ab ab ab ab ab ab ab ab ab ab ab\n00000010: ab\n" {
		t.Fatalf("hexDump = %q", dump)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
