package ml

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
)

// Rule is one SelectAlgorithm rule: a compilable boolean expression and
// the algorithm (with confidence) it selects when it evaluates truthy.
// PredictWaste and PredictTime use plain expression strings instead.
type Rule struct {
	Expression string
	Algorithm  string // used by SelectAlgorithm rules
	Confidence float64
}

// programCache is a thread-safe LRU cache for compiled expr programs,
// one compile per unique expression string regardless of how many times
// it is evaluated.
type programCache struct {
	capacity int
	mu       sync.RWMutex
	entries  map[string]*list.Element
	order    *list.List
}

type programEntry struct {
	key     string
	program *vm.Program
}

func newProgramCache(capacity int) *programCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &programCache{capacity: capacity, entries: make(map[string]*list.Element), order: list.New()}
}

func (c *programCache) get(expression string) (*vm.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[expression]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*programEntry).program, true
	}
	return nil, false
}

func (c *programCache) put(expression string, program *vm.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[expression]; ok {
		c.order.MoveToFront(el)
		el.Value.(*programEntry).program = program
		return
	}
	el := c.order.PushFront(&programEntry{key: expression, program: program})
	c.entries[expression] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*programEntry).key)
		}
	}
}

func (c *programCache) compileAndCache(expression string, env any) (*vm.Program, error) {
	if p, ok := c.get(expression); ok {
		return p, nil
	}
	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}
	c.put(expression, program)
	return program, nil
}

// RuleBasedPredictor evaluates configurable expr-lang expressions against
// the input feature map in place of a trained model. Expressions compile
// once per unique rule string; the compiled program is reused across
// evaluations via an LRU cache.
type RuleBasedPredictor struct {
	wasteRule     string
	timeRule      string
	selectorRules []Rule
	cache         *programCache
}

// NewRuleBasedPredictor builds a predictor from the given expressions.
// wasteRule and timeRule evaluate to a float; selectorRules are tried in
// order and the first whose Expression evaluates truthy wins.
func NewRuleBasedPredictor(wasteRule, timeRule string, selectorRules []Rule) *RuleBasedPredictor {
	return &RuleBasedPredictor{
		wasteRule:     wasteRule,
		timeRule:      timeRule,
		selectorRules: selectorRules,
		cache:         newProgramCache(100),
	}
}

func (p *RuleBasedPredictor) eval(expression string, features Features) (any, error) {
	program, err := p.cache.compileAndCache(expression, features)
	if err != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expression, err)
	}
	return expr.Run(program, features)
}

func (p *RuleBasedPredictor) PredictWaste(_ context.Context, features Features) (Prediction, error) {
	if p.wasteRule == "" {
		return Prediction{Success: false}, nil
	}
	out, err := p.eval(p.wasteRule, features)
	if err != nil {
		return Prediction{Success: false}, err
	}
	value, ok := toFloat(out)
	if !ok {
		return Prediction{Success: false}, nil
	}
	return Prediction{Success: true, Value: value, Confidence: 0.5, PredictionID: uuid.NewString()}, nil
}

func (p *RuleBasedPredictor) PredictTime(_ context.Context, features Features) (Prediction, error) {
	if p.timeRule == "" {
		return Prediction{Success: false}, nil
	}
	out, err := p.eval(p.timeRule, features)
	if err != nil {
		return Prediction{Success: false}, err
	}
	value, ok := toFloat(out)
	if !ok {
		return Prediction{Success: false}, nil
	}
	return Prediction{Success: true, Value: value, Confidence: 0.5, PredictionID: uuid.NewString()}, nil
}

func (p *RuleBasedPredictor) SelectAlgorithm(_ context.Context, features Features) (Prediction, error) {
	for _, rule := range p.selectorRules {
		out, err := p.eval(rule.Expression, features)
		if err != nil {
			return Prediction{Success: false}, err
		}
		matched, ok := out.(bool)
		if ok && matched {
			return Prediction{
				Success:      true,
				Algorithm:    rule.Algorithm,
				Confidence:   rule.Confidence,
				PredictionID: uuid.NewString(),
			}, nil
		}
	}
	return Prediction{Success: false}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
