// Package flow implements the conversation turn flow: system prompt
// composition, completion output parsing, per-day phase state, and the
// session orchestration that ties them to the store and completion engine.
package flow

import (
	"fmt"
	"strings"

	"github.com/cocoro-lab/cocorochat/internal/kb"
	"github.com/cocoro-lab/cocorochat/internal/models"
	"github.com/openai/openai-go"
)

// Marker literals of the textual output convention requested from the
// completion engine. The composer embeds them in the instructions and the
// parser scans for them, so both ends must share these exact strings.
const (
	// PhaseMarker precedes the single inferred phase id on its own line.
	PhaseMarker = "【phase】"
	// ResponseMarker precedes the free-text reply body.
	ResponseMarker = "【response】"
)

// ComposeSystemPrompt builds the system instructions for one turn.
//
// On the first turn of a conversation day the engine is directed to infer
// exactly one phase id and emit the two-section marker format. On later turns
// the phase is stated as fixed and only the response section is requested.
// The full serialized knowledge base is embedded every time; no retrieval or
// summarization step exists at this scale.
func ComposeSystemPrompt(k *kb.KnowledgeBase, fixedPhase string, isFirstToday bool) string {
	var b strings.Builder
	b.WriteString("あなたはひきこもり支援の専門家です。\n")
	b.WriteString("以下の知識ベースに基づき、相談者の状態に応じて共感的に応答してください。\n")
	if isFirstToday {
		b.WriteString("まず相談者の発言から、知識ベースの phase_1〜phase_4 のうち該当する phase を1つだけ推定してください。\n")
		b.WriteString(fmt.Sprintf("出力は必ず次の形式に従ってください。1行目に「%s」に続けて推定した phase ID を1つだけ記載し、その後に「%s」に続けて相談者への返答本文を記載してください。\n", PhaseMarker, ResponseMarker))
	} else {
		b.WriteString(fmt.Sprintf("今回の相談は phase: %s に固定します。phase の推定は行わないでください。\n", fixedPhase))
		b.WriteString(fmt.Sprintf("出力は「%s」に続けて相談者への返答本文のみを記載してください。\n", ResponseMarker))
	}
	b.WriteString("知識ベース: ")
	b.WriteString(k.Serialized())
	return b.String()
}

// BuildTurnMessages converts the day's history and the new user message into
// the role-tagged message list sent after the system prompt: one user and one
// assistant message per historical turn in chronological order, then the new
// message. Day-scoping by the caller bounds the size; no truncation happens
// here.
func BuildTurnMessages(history []models.Turn, newMessage string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2*len(history)+1)
	for _, t := range history {
		messages = append(messages, openai.UserMessage(t.UserMessage))
		messages = append(messages, openai.AssistantMessage(t.BotMessage))
	}
	messages = append(messages, openai.UserMessage("相談者の発言: "+newMessage))
	return messages
}
