// Package serp talks to a search-engine-as-a-service backend and turns its
// loosely shaped JSON into typed responses.
package serp

import (
	"context"
	"encoding/json"

	"github.com/FranksOps/marketscout/internal/query"
)

// Provider executes one planned query against a search backend.
type Provider interface {
	Search(ctx context.Context, q query.Query) (*Response, error)
}

// Organic is one ranked result (web, news or scholar).
type Organic struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Date    string `json:"date,omitempty"`
}

// AnswerBox is the inline answer some queries produce.
type AnswerBox struct {
	Title   string `json:"title,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link,omitempty"`
}

// Text returns the answer, or the snippet when no direct answer exists.
func (a *AnswerBox) Text() string {
	if a.Answer != "" {
		return a.Answer
	}
	return a.Snippet
}

// KnowledgeGraph is the entity panel attached to some queries.
type KnowledgeGraph struct {
	Title       string            `json:"title,omitempty"`
	Type        string            `json:"type,omitempty"`
	Description string            `json:"description,omitempty"`
	Website     string            `json:"website,omitempty"`
	Facts       map[string]string `json:"facts,omitempty"`
}

// RelatedQuestion is a "people also ask" entry.
type RelatedQuestion struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet,omitempty"`
	Link     string `json:"link,omitempty"`
}

// Response is the typed form of one backend reply. Query is filled in by the
// caller so downstream stages know what produced the results.
type Response struct {
	Query            query.Query       `json:"query_metadata"`
	Organic          []Organic         `json:"organic,omitempty"`
	AnswerBox        *AnswerBox        `json:"answer_box,omitempty"`
	KnowledgeGraph   *KnowledgeGraph   `json:"knowledge_graph,omitempty"`
	RelatedQuestions []RelatedQuestion `json:"related_questions,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// wireResponse accepts both camelCase and snake_case spellings used by
// search backends, plus the news endpoint's "news" array.
type wireResponse struct {
	Organic            []Organic         `json:"organic"`
	News               []Organic         `json:"news"`
	AnswerBox          *AnswerBox        `json:"answerBox"`
	AnswerBoxSnake     *AnswerBox        `json:"answer_box"`
	KnowledgeGraph     *wireGraph        `json:"knowledgeGraph"`
	KnowledgeGraphSnk  *wireGraph        `json:"knowledge_graph"`
	PeopleAlsoAsk      []RelatedQuestion `json:"peopleAlsoAsk"`
	RelatedQuestions   []RelatedQuestion `json:"related_questions"`
	RelatedQuestionsCC []RelatedQuestion `json:"relatedQuestions"`
	Error              string            `json:"error"`
	Message            string            `json:"message"`
	StatusCode         int               `json:"statusCode"`
}

type wireGraph struct {
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Website     string            `json:"website"`
	Attributes  map[string]string `json:"attributes"`
	Facts       map[string]string `json:"facts"`
}

// Decode parses a raw backend body. An error reply from the backend decodes
// successfully with Response.Error set.
func Decode(body []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, err
	}

	r := &Response{
		Organic:          append(w.Organic, w.News...),
		AnswerBox:        firstNonNil(w.AnswerBox, w.AnswerBoxSnake),
		RelatedQuestions: w.RelatedQuestions,
		Error:            w.Error,
	}
	if len(r.RelatedQuestions) == 0 {
		r.RelatedQuestions = w.RelatedQuestionsCC
	}
	if len(r.RelatedQuestions) == 0 {
		r.RelatedQuestions = w.PeopleAlsoAsk
	}
	if r.Error == "" && w.StatusCode >= 400 {
		r.Error = w.Message
		if r.Error == "" {
			r.Error = "backend error"
		}
	}

	if g := firstNonNil(w.KnowledgeGraph, w.KnowledgeGraphSnk); g != nil {
		facts := g.Facts
		if len(facts) == 0 {
			facts = g.Attributes
		}
		r.KnowledgeGraph = &KnowledgeGraph{
			Title:       g.Title,
			Type:        g.Type,
			Description: g.Description,
			Website:     g.Website,
			Facts:       facts,
		}
	}
	return r, nil
}

func firstNonNil[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
