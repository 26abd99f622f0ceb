// Package lifecycle holds the pure state machines for lessons and quotes
// and the authorization rules for requesting transitions. Nothing here
// does I/O; callers load the data and this package only decides.
package lifecycle

import "github.com/tutorlane/marketplace/internal/model"

type lessonEdge struct {
	from model.LessonState
	tr   model.LessonTransition
}

type quoteEdge struct {
	from model.QuoteState
	tr   model.QuoteTransition
}

// lessonTable enumerates every legal lesson transition. A pair absent
// here is illegal; there is no default.
var lessonTable = map[lessonEdge]model.LessonState{
	{model.LessonRequested, model.LessonTransitionAccept}: model.LessonAccepted,
	{model.LessonRequested, model.LessonTransitionReject}: model.LessonRejected,
	{model.LessonAccepted, model.LessonTransitionDefine}:  model.LessonDefined,
	{model.LessonDefined, model.LessonTransitionComplete}: model.LessonCompleted,
	{model.LessonDefined, model.LessonTransitionVoid}:     model.LessonVoided,
}

// quoteTable enumerates every legal quote transition. Quotes are
// single-shot: every transition out of created is terminal.
var quoteTable = map[quoteEdge]model.QuoteState{
	{model.QuoteCreated, model.QuoteTransitionAccept}: model.QuoteAccepted,
	{model.QuoteCreated, model.QuoteTransitionReject}: model.QuoteRejected,
	{model.QuoteCreated, model.QuoteTransitionExpire}: model.QuoteExpired,
}

// NextLessonState returns the state a lesson moves to when tr is applied
// from the given state, and whether that pair is legal at all.
func NextLessonState(from model.LessonState, tr model.LessonTransition) (model.LessonState, bool) {
	next, ok := lessonTable[lessonEdge{from, tr}]
	return next, ok
}

// NextQuoteState is the quote counterpart of NextLessonState.
func NextQuoteState(from model.QuoteState, tr model.QuoteTransition) (model.QuoteState, bool) {
	next, ok := quoteTable[quoteEdge{from, tr}]
	return next, ok
}

// IsTerminalLessonState reports whether no transition leaves the state.
func IsTerminalLessonState(s model.LessonState) bool {
	for edge := range lessonTable {
		if edge.from == s {
			return false
		}
	}
	return true
}

// IsTerminalQuoteState reports whether no transition leaves the state.
func IsTerminalQuoteState(s model.QuoteState) bool {
	for edge := range quoteTable {
		if edge.from == s {
			return false
		}
	}
	return true
}

// LessonStates lists every state a lesson can be in.
var LessonStates = []model.LessonState{
	model.LessonRequested,
	model.LessonAccepted,
	model.LessonDefined,
	model.LessonCompleted,
	model.LessonRejected,
	model.LessonVoided,
}

// LessonTransitions lists every transition name a caller may request.
var LessonTransitions = []model.LessonTransition{
	model.LessonTransitionAccept,
	model.LessonTransitionDefine,
	model.LessonTransitionComplete,
	model.LessonTransitionReject,
	model.LessonTransitionVoid,
}

// QuoteStates lists every state a quote can be in.
var QuoteStates = []model.QuoteState{
	model.QuoteCreated,
	model.QuoteAccepted,
	model.QuoteRejected,
	model.QuoteExpired,
}

// QuoteTransitions lists every transition name for quotes.
var QuoteTransitions = []model.QuoteTransition{
	model.QuoteTransitionAccept,
	model.QuoteTransitionReject,
	model.QuoteTransitionExpire,
}

// KnownLessonTransition reports whether tr names a transition at all,
// regardless of the state it is requested from.
func KnownLessonTransition(tr model.LessonTransition) bool {
	for _, known := range LessonTransitions {
		if tr == known {
			return true
		}
	}
	return false
}
