package model

import (
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
)

type EnvelopeKind int

const (
	KindReply EnvelopeKind = iota + 1
	KindMessage
	KindError
)

func (k EnvelopeKind) String() string {
	switch k {
	case KindReply:
		return "reply"
	case KindMessage:
		return "message"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorDescriptor is the caller-safe description of a failed request.
type ErrorDescriptor struct {
	Code    codes.Code
	Message string
}

// ResponseEnvelope is what the pipeline hands back for every request.
// Exactly one of Reply, Message or Error is populated; use the constructors.
type ResponseEnvelope struct {
	kind    EnvelopeKind
	reply   *StructuredReply
	message string
	err     *ErrorDescriptor
}

func ReplyEnvelope(reply StructuredReply) ResponseEnvelope {
	if reply.Medicines == nil {
		reply.Medicines = []Medicine{}
	}
	return ResponseEnvelope{kind: KindReply, reply: &reply}
}

func MessageEnvelope(message string) ResponseEnvelope {
	return ResponseEnvelope{kind: KindMessage, message: message}
}

func ErrorEnvelope(code codes.Code, message string) ResponseEnvelope {
	return ResponseEnvelope{kind: KindError, err: &ErrorDescriptor{Code: code, Message: message}}
}

func (e ResponseEnvelope) Kind() EnvelopeKind { return e.kind }

func (e ResponseEnvelope) Reply() (StructuredReply, bool) {
	if e.kind != KindReply || e.reply == nil {
		return StructuredReply{}, false
	}
	return *e.reply, true
}

func (e ResponseEnvelope) Message() (string, bool) {
	if e.kind != KindMessage {
		return "", false
	}
	return e.message, true
}

func (e ResponseEnvelope) Error() (ErrorDescriptor, bool) {
	if e.kind != KindError || e.err == nil {
		return ErrorDescriptor{}, false
	}
	return *e.err, true
}

// MarshalJSON writes only the populated variant: the StructuredReply itself,
// {"message": ...} or {"error": ...}.
func (e ResponseEnvelope) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case KindReply:
		return json.Marshal(e.reply)
	case KindMessage:
		return json.Marshal(map[string]string{"message": e.message})
	case KindError:
		return json.Marshal(ErrorResponse{Error: e.err.Message})
	default:
		return nil, errors.New("model: empty response envelope")
	}
}
