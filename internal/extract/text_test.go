package extract

import (
	"strings"
	"testing"
)

func TestNormalizeInput_PlainText(t *testing.T) {
	got := NormalizeInput("Apple's market cap\n   is  $3 trillion.")
	want := "Apple's market cap is $3 trillion."
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestNormalizeInput_HTML(t *testing.T) {
	input := `<html><body>
		<p>Tesla stock is trading at $200.</p>
		<script>trackPageView()</script>
		<style>.x{color:red}</style>
	</body></html>`

	got := NormalizeInput(input)
	if !strings.Contains(got, "Tesla stock is trading at $200.") {
		t.Errorf("Expected visible text preserved, got %q", got)
	}
	if strings.Contains(got, "trackPageView") || strings.Contains(got, "color:red") {
		t.Errorf("Expected script/style content stripped, got %q", got)
	}
}

func TestNormalizeInput_AngleBracketsInPlainText(t *testing.T) {
	// Stray comparisons must not trigger HTML parsing.
	input := "Revenue grew by a factor of <2 this year."
	if got := NormalizeInput(input); got != input {
		t.Errorf("Expected plain text untouched, got %q", got)
	}
}
