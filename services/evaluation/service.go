package evaluation

import (
	"errors"

	"github.com/Knetic/govaluate"
	"github.com/rs/zerolog/log"

	"github.com/relengfoundry/assembly-gen/api"
)

// Service evaluates when clauses from the component metadata
//go:generate mockgen -package=evaluation -destination ./mock.go -source=service.go
type Service interface {
	Evaluate(string, string, map[string]interface{}) (bool, error)
	GetParameters(arch string, assemblyType api.AssemblyType, mode api.Mode) map[string]interface{}
}

// NewService returns a new evaluation.Service
func NewService() (Service, error) {
	return &service{}, nil
}

type service struct {
}

func (s *service) Evaluate(componentName, input string, parameters map[string]interface{}) (result bool, err error) {

	if input == "" {
		return false, errors.New("When expression is empty")
	}

	expression, err := govaluate.NewEvaluableExpression(input)
	if err != nil {
		return
	}

	r, err := expression.Evaluate(parameters)

	log.Debug().Msgf("[%v] Result of when expression \"%v\" is \"%v\"", componentName, input, r)

	if result, ok := r.(bool); ok {
		return result, err
	}

	return false, errors.New("Result of evaluating when expression is not of type boolean")
}

func (s *service) GetParameters(arch string, assemblyType api.AssemblyType, mode api.Mode) map[string]interface{} {

	parameters := make(map[string]interface{}, 3)
	parameters["arch"] = arch
	parameters["assemblyType"] = string(assemblyType)
	parameters["mode"] = string(mode)

	return parameters
}
