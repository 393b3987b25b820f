package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/health-assistant-rag/reply"
	"go.uber.org/zap"
)

type departmentReply struct {
	Department string `json:"department"`
}

type DepartmentClassifier struct {
	agent Asker
}

func NewDepartmentClassifier(agent Asker) *DepartmentClassifier {
	return &DepartmentClassifier{agent: agent}
}

// Classify picks the department of a medical query. The result is General
// whenever the reply is missing, unparseable or outside the enumeration.
func (c *DepartmentClassifier) Classify(ctx context.Context, query string) (Department, error) {
	raw, err := c.agent.Ask(ctx, departmentPrompt(query))
	if err != nil {
		return DepartmentGeneral, fmt.Errorf("classify department: %w", err)
	}

	res := reply.Parse(raw, departmentReply{Department: string(DepartmentGeneral)})
	department := ParseDepartment(res.Value.Department)

	logger.Info("Classified department",
		zap.String("department", string(department)),
		zap.Bool("fallback", res.IsFallback()))
	return department, nil
}

func departmentPrompt(query string) string {
	names := make([]string, 0, len(Departments))
	for _, d := range Departments {
		names = append(names, "'"+string(d)+"'")
	}
	return strings.Join([]string{
		"Classify the following medical query into one of: " + strings.Join(names, ", ") + ".",
		"",
		"Input: " + query,
		`Respond with JSON in the form {"department": "Cardiology"}.`,
	}, "\n")
}
