package embedding

import "testing"

func TestSimpleTokenizerTokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("hello world", 10)

	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d/%d/%d, want 10", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("ids[0] = %d, want [CLS] 101", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("ids[3] = %d, want [SEP] 102", ids[3])
	}
	for i, want := range []int64{1, 1, 1, 1, 0} {
		if attn[i] != want {
			t.Errorf("attn[%d] = %d, want %d", i, attn[i], want)
		}
	}
	for i, v := range types {
		if v != 0 {
			t.Errorf("types[%d] = %d, want 0", i, v)
		}
	}
}

func TestSimpleTokenizerTruncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("one two three four five", 4)

	if len(ids) != 4 {
		t.Fatalf("len(ids) = %d, want 4", len(ids))
	}
	if ids[0] != 101 {
		t.Errorf("ids[0] = %d, want [CLS] 101", ids[0])
	}
	if ids[3] != 102 {
		t.Errorf("ids[3] = %d, want [SEP] 102 after truncation", ids[3])
	}
	if attn[3] != 1 {
		t.Error("attention should cover the [SEP] slot")
	}
}

func TestSimpleTokenizerDefaultsMaxTokens(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, _, _ := tok.Tokenize("hello", 0)
	if len(ids) != 256 {
		t.Errorf("len(ids) = %d, want default 256", len(ids))
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  one \ttwo\nthree  ")
	if len(words) != 3 {
		t.Fatalf("got %v, want 3 words", words)
	}
	if words[0] != "one" || words[2] != "three" {
		t.Errorf("got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
	if SplitWords("   ") != nil {
		t.Error("whitespace-only string should return nil")
	}
}

func TestHashString(t *testing.T) {
	if HashString("chunk") != HashString("chunk") {
		t.Error("hash should be deterministic")
	}
	if HashString("chunk") == HashString("chunks") {
		t.Error("different words should hash differently")
	}
	if HashString("a very long string that overflows the accumulator several times over") < 0 {
		t.Error("hash should be non-negative")
	}
}
