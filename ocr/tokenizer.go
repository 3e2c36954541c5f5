package ocr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// tokenizer decodes model output token ids back into text. It understands
// the Hugging Face tokenizer.json layout shipped alongside the ONNX export,
// covering both map-style (BPE) and list-style (unigram) vocabularies.
type tokenizer struct {
	tokens  []string
	special map[int64]bool
	bosID   int64
	eosID   int64
}

type tokenizerFile struct {
	AddedTokens []struct {
		ID      int64  `json:"id"`
		Content string `json:"content"`
		Special bool   `json:"special"`
	} `json:"added_tokens"`
	Model struct {
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
}

// loadTokenizer reads and parses a tokenizer.json file.
func loadTokenizer(path string) (*tokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tf tokenizerFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse tokenizer: %w", err)
	}

	tokens, err := parseVocab(tf.Model.Vocab)
	if err != nil {
		return nil, err
	}

	t := &tokenizer{
		tokens:  tokens,
		special: make(map[int64]bool),
		bosID:   -1,
		eosID:   -1,
	}
	for _, at := range tf.AddedTokens {
		if at.Special {
			t.special[at.ID] = true
		}
		switch at.Content {
		case "<s>":
			t.bosID = at.ID
		case "</s>":
			t.eosID = at.ID
		}
		// Added tokens may extend past the base vocabulary.
		for int64(len(t.tokens)) <= at.ID {
			t.tokens = append(t.tokens, "")
		}
		t.tokens[at.ID] = at.Content
	}

	if len(t.tokens) == 0 {
		return nil, fmt.Errorf("parse tokenizer: empty vocabulary")
	}
	return t, nil
}

// parseVocab accepts either {"token": id, ...} or [["token", score], ...].
func parseVocab(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse tokenizer: missing vocab")
	}

	var byToken map[string]int64
	if err := json.Unmarshal(raw, &byToken); err == nil {
		maxID := int64(-1)
		for _, id := range byToken {
			if id > maxID {
				maxID = id
			}
		}
		tokens := make([]string, maxID+1)
		for tok, id := range byToken {
			tokens[id] = tok
		}
		return tokens, nil
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("parse tokenizer: unsupported vocab layout")
	}
	tokens := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) == 0 {
			tokens = append(tokens, "")
			continue
		}
		var tok string
		if err := json.Unmarshal(pair[0], &tok); err != nil {
			return nil, fmt.Errorf("parse tokenizer: bad vocab entry")
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// markerReplacer maps sentencepiece and byte-level BPE whitespace markers
// back to their characters.
var markerReplacer = strings.NewReplacer("▁", " ", "Ġ", " ", "Ċ", "\n")

// Decode converts token ids to text, dropping special tokens.
func (t *tokenizer) Decode(ids []int64) string {
	var sb strings.Builder
	for _, id := range ids {
		if id < 0 || id >= int64(len(t.tokens)) || t.special[id] {
			continue
		}
		sb.WriteString(markerReplacer.Replace(t.tokens[id]))
	}
	return strings.TrimLeft(sb.String(), " ")
}
