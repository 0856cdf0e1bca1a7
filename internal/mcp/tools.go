package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/lingoxa/internal/pronunciation"
	"github.com/MrWong99/lingoxa/internal/topics"
	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

// Tool names.
const (
	ToolAnalyzePronunciation = "analyze_pronunciation"
	ToolPhonemeExample       = "phoneme_example"
	ToolWordPhonemes         = "word_phonemes"
	ToolGrammarTopic         = "grammar_topic"
)

type toolset struct {
	analyzer Analyzer
	topics   *topics.Catalog
}

type analyzeInput struct {
	Text string `json:"text" jsonschema:"the learner's utterance as recognised from speech"`
}

type analyzeOutput struct {
	Divergences []pronunciation.Divergence `json:"pronunciation_errors"`
	Suggestions []string                   `json:"suggestions"`
	Skipped     []string                   `json:"skipped"`
}

func (t *toolset) analyzePronunciation(ctx context.Context, _ *mcpsdk.CallToolRequest, in analyzeInput) (*mcpsdk.CallToolResult, analyzeOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, analyzeOutput{}, errors.New("text must not be empty")
	}
	rep, err := t.analyzer.Analyze(ctx, in.Text)
	if err != nil {
		return nil, analyzeOutput{}, fmt.Errorf("analyze: %w", err)
	}
	return nil, analyzeOutput{
		Divergences: rep.Divergences,
		Suggestions: rep.Suggestions,
		Skipped:     rep.Skipped,
	}, nil
}

type phonemeInput struct {
	Phoneme string `json:"phoneme" jsonschema:"an ARPAbet symbol, optionally with stress digit, e.g. DH or AE1"`
}

type phonemeOutput struct {
	Symbol      string `json:"symbol"`
	IPA         string `json:"ipa"`
	ExampleWord string `json:"example_word"`
}

func (t *toolset) phonemeExample(_ context.Context, _ *mcpsdk.CallToolRequest, in phonemeInput) (*mcpsdk.CallToolResult, phonemeOutput, error) {
	sym := strings.ToUpper(strings.TrimSpace(in.Phoneme))
	ipa, ok := phoneme.IPA(sym)
	if !ok {
		return nil, phonemeOutput{}, fmt.Errorf("unknown ARPAbet symbol %q", in.Phoneme)
	}
	return nil, phonemeOutput{Symbol: sym, IPA: ipa, ExampleWord: phoneme.ExampleWord(sym)}, nil
}

type wordInput struct {
	Word string `json:"word" jsonschema:"a single English word"`
}

type wordOutput struct {
	Word    string   `json:"word"`
	ARPAbet []string `json:"arpabet"`
	IPA     []string `json:"ipa"`
}

func (t *toolset) wordPhonemes(_ context.Context, _ *mcpsdk.CallToolRequest, in wordInput) (*mcpsdk.CallToolResult, wordOutput, error) {
	w := pronunciation.CleanWord(in.Word)
	arpa, ipa, ok := t.analyzer.Phonemes(w)
	if !ok {
		return nil, wordOutput{}, fmt.Errorf("%q is not in the dictionary", in.Word)
	}
	return nil, wordOutput{Word: w, ARPAbet: arpa, IPA: ipa}, nil
}

type topicInput struct {
	Topic string `json:"topic,omitempty" jsonschema:"the topic name, e.g. tenses; leave empty to list topics"`
}

type topicOutput struct {
	Name      string   `json:"name,omitempty"`
	Text      string   `json:"text,omitempty"`
	Available []string `json:"available,omitempty"`
}

func (t *toolset) grammarTopic(_ context.Context, _ *mcpsdk.CallToolRequest, in topicInput) (*mcpsdk.CallToolResult, topicOutput, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, topicOutput{Available: t.topics.Names()}, nil
	}
	tp, err := t.topics.Get(in.Topic)
	if err != nil {
		return nil, topicOutput{}, fmt.Errorf("%w; available: %s", err, strings.Join(t.topics.Names(), ", "))
	}
	return nil, topicOutput{Name: tp.Name, Text: tp.Text}, nil
}
