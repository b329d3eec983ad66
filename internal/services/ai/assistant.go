package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	tagDescriptionSystem = "You are a concise technical writer for a developer Q&A forum. " +
		"Describe programming topics in plain prose without markdown headings."
	answerSystem = "You are an experienced software engineer answering questions on a developer Q&A forum. " +
		"Give a correct, direct answer and include a short code example when it helps."
)

// Assistant turns forum tasks into prompts for a Provider.
type Assistant struct {
	provider Provider
	log      *zap.Logger
}

func NewAssistant(provider Provider, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{provider: provider, log: log}
}

// DescribeTag returns a short description of a tag.
func (a *Assistant) DescribeTag(ctx context.Context, tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "", fmt.Errorf("tag name is required")
	}
	reply, err := a.provider.Complete(ctx, tagDescriptionSystem, buildTagDescriptionPrompt(tag))
	if err != nil {
		return "", fmt.Errorf("failed to describe tag: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// AnswerQuestion drafts an answer to a question.
func (a *Assistant) AnswerQuestion(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}
	reply, err := a.provider.Complete(ctx, answerSystem, question)
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func buildTagDescriptionPrompt(tag string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a description of the %q tag in two or three sentences.\n", tag)
	b.WriteString("Explain what the technology or concept is and what kind of questions belong under it.\n")
	b.WriteString("Keep it under 80 words.")
	return b.String()
}
