package pipeline

import (
	"context"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/classifier"
	"github.com/SaiNageswarS/health-assistant-rag/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

const (
	GreetingMessage = "Hello! How can I assist you today with your health concerns?"
	GeneralMessage  = "I may not have an answer to that, but I'd love to help with health-related questions, product recommendations, or wellness advice. Let me know how I can assist!"

	EmptyMessageError = "No message provided"
	InternalError     = "Internal Server Error"
	CancelledError    = "Request cancelled"
)

type IntentClassifier interface {
	Classify(ctx context.Context, query string) (classifier.Intent, error)
}

type DepartmentClassifier interface {
	Classify(ctx context.Context, query string) (classifier.Department, error)
}

type Recommender interface {
	Recommend(ctx context.Context, query string, department classifier.Department) model.StructuredReply
}

// Orchestrator is the only component that decides which stage runs next.
// It holds read-only collaborators and is safe for concurrent use.
type Orchestrator struct {
	intents     IntentClassifier
	departments DepartmentClassifier
	recommender Recommender
}

func New(intents IntentClassifier, departments DepartmentClassifier, recommender Recommender) *Orchestrator {
	return &Orchestrator{
		intents:     intents,
		departments: departments,
		recommender: recommender,
	}
}

// Handle routes message through the pipeline. The returned envelope always
// has exactly one populated variant.
func (o *Orchestrator) Handle(ctx context.Context, message string) model.ResponseEnvelope {
	env, _ := o.handle(ctx, message)
	return env
}

func (o *Orchestrator) handle(ctx context.Context, message string) (env model.ResponseEnvelope, r *run) {
	r = newRun(newRequestID())

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Pipeline panicked",
				zap.String("requestId", r.id),
				zap.String("state", string(r.state)),
				zap.Any("panic", p))
			env = o.fail(r, codes.Internal, InternalError)
		}
	}()

	query := strings.TrimSpace(message)
	if query == "" {
		return o.fail(r, codes.InvalidArgument, EmptyMessageError), r
	}

	o.step(r, StateClassifying)
	intent, err := o.intents.Classify(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return o.fail(r, codes.Canceled, CancelledError), r
		}
		logger.Error("Intent classification failed, treating query as general",
			zap.String("requestId", r.id),
			zap.Error(err))
		intent = classifier.IntentGeneral
	}

	switch intent {
	case classifier.IntentGreeting:
		o.step(r, StateGreeting)
		o.step(r, StateDone)
		return model.MessageEnvelope(GreetingMessage), r

	case classifier.IntentMedical:
		o.step(r, StateMedicalPending)
		return o.recommend(ctx, r, query), r

	default:
		o.step(r, StateGeneral)
		o.step(r, StateDone)
		return model.MessageEnvelope(GeneralMessage), r
	}
}

func (o *Orchestrator) recommend(ctx context.Context, r *run, query string) model.ResponseEnvelope {
	o.step(r, StateDepartmentClassifying)
	department, err := o.departments.Classify(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return o.fail(r, codes.Canceled, CancelledError)
		}
		logger.Error("Department classification failed, using General",
			zap.String("requestId", r.id),
			zap.Error(err))
		department = classifier.DepartmentGeneral
	}

	o.step(r, StateRecommending)
	reply := o.recommender.Recommend(ctx, query, department)
	if ctx.Err() != nil {
		return o.fail(r, codes.Canceled, CancelledError)
	}

	o.step(r, StateDone)
	logger.Info("Recommendation ready",
		zap.String("requestId", r.id),
		zap.String("department", string(department)),
		zap.Int("medicines", len(reply.Medicines)))
	return model.ReplyEnvelope(reply)
}

// step panics on an illegal transition; the panic is recovered in handle and
// surfaces as an internal error.
func (o *Orchestrator) step(r *run, to State) {
	if err := r.transition(to); err != nil {
		panic(err)
	}
}

func (o *Orchestrator) fail(r *run, code codes.Code, msg string) model.ResponseEnvelope {
	if !r.state.Terminal() {
		if err := r.transition(StateErrored); err != nil {
			logger.Error("Pipeline could not enter errored state", zap.Error(err))
		}
	}
	logger.Info("Pipeline failed",
		zap.String("requestId", r.id),
		zap.String("code", code.String()),
		zap.String("error", msg))
	return model.ErrorEnvelope(code, msg)
}

var newRequestID = func() string {
	return uuid.NewString()
}
