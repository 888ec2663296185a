// Package hints infers ordering suggestions that no field match backs:
// CRUD lifecycles, nested resources and authentication workflows. Hints are
// kept apart from the dependency graph and never change its confidence.
package hints

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/prasenjit/go-depgraph/internal/models"
)

// Infer returns all hints for a set of operations, CRUD first, then nested
// resources, then workflow. A pair may carry several kinds but each kind once.
func Infer(ops []*models.Operation) []models.Hint {
	var c collector
	c.add(CRUD(ops)...)
	c.add(Nested(ops)...)
	c.add(Workflow(ops)...)
	return c.hints
}

// collector drops self pairs and repeated (source, target, kind) triples
type collector struct {
	seen  map[models.Hint]bool
	hints []models.Hint
}

func (c *collector) add(hints ...models.Hint) {
	if c.seen == nil {
		c.seen = make(map[models.Hint]bool)
	}
	for _, h := range hints {
		if h.Source == h.Target {
			continue
		}
		key := models.Hint{Source: h.Source, Target: h.Target, Kind: h.Kind}
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.hints = append(c.hints, h)
	}
}

// CRUD suggests creating a resource before reading, updating or deleting it.
// Operations are grouped by resource type and paired only when their static
// path segments nest.
func CRUD(ops []*models.Operation) []models.Hint {
	var resources []string
	byResource := make(map[string][]*models.Operation)
	for _, op := range ops {
		if op.ResourceType == "" {
			continue
		}
		if _, ok := byResource[op.ResourceType]; !ok {
			resources = append(resources, op.ResourceType)
		}
		byResource[op.ResourceType] = append(byResource[op.ResourceType], op)
	}

	var c collector
	for _, resource := range resources {
		group := byResource[resource]
		for _, create := range group {
			if !IsTrueCreate(create) {
				continue
			}
			for _, op := range group {
				verb := crudVerb(op)
				if verb == "" || op == create || !crudRelated(create, op) {
					continue
				}
				c.add(models.Hint{
					Source: create.ID,
					Target: op.ID,
					Kind:   models.HintCRUD,
					Reason: "create " + resource + " before " + verb,
				})
			}
		}
	}
	return c.hints
}

// IsTrueCreate reports whether op is a POST to a top-level collection.
// POST /pets creates; POST /pets/{petId} and POST /pets/{petId}/photo act
// on an existing resource.
func IsTrueCreate(op *models.Operation) bool {
	if op.Method != http.MethodPost {
		return false
	}
	segments := pathSegments(op.Path)
	for _, seg := range segments {
		if isParam(seg) {
			return false
		}
	}
	return true
}

// crudVerb names what op does to an existing resource, or "" for creates
// and other methods
func crudVerb(op *models.Operation) string {
	switch op.Method {
	case http.MethodGet:
		return "reading"
	case http.MethodPut, http.MethodPatch:
		return "updating"
	case http.MethodDelete:
		return "deleting"
	case http.MethodPost:
		if !IsTrueCreate(op) {
			return "updating"
		}
	}
	return ""
}

// crudRelated reports whether the static segments of one path are a subset
// of the other's
func crudRelated(a, b *models.Operation) bool {
	sa, sb := staticSegments(a.Path), staticSegments(b.Path)
	return subset(sa, sb) || subset(sb, sa)
}

// Nested suggests creating a parent collection entry before any operation
// on a path below it
func Nested(ops []*models.Operation) []models.Hint {
	creates := make(map[string][]*models.Operation)
	for _, op := range ops {
		if op.Method == http.MethodPost {
			creates[normalizePath(op.Path)] = append(creates[normalizePath(op.Path)], op)
		}
	}

	var c collector
	for _, op := range ops {
		segments := pathSegments(op.Path)
		for i := 1; i < len(segments); i++ {
			parent := "/" + strings.Join(segments[:i], "/")
			for _, create := range creates[parent] {
				c.add(models.Hint{
					Source: create.ID,
					Target: op.ID,
					Kind:   models.HintNested,
					Reason: op.Path + " is nested under " + create.Path,
				})
			}
		}
	}
	return c.hints
}

// role classifies an operation within an authentication workflow
type role int

const (
	roleNone role = iota
	roleSignup
	roleLogin
	roleLogout
)

var (
	signupWords = []string{"signup", "register", "createaccount"}
	loginWords  = []string{"login", "signin", "authenticate"}
	logoutWords = []string{"logout", "signout"}
)

// Workflow orders signup before login, login before operations that need
// credentials and login before logout
func Workflow(ops []*models.Operation) []models.Hint {
	var signups, logins, logouts, protected []*models.Operation
	for _, op := range ops {
		switch classify(op) {
		case roleSignup:
			signups = append(signups, op)
		case roleLogin:
			logins = append(logins, op)
		case roleLogout:
			logouts = append(logouts, op)
		default:
			if needsCredentials(op) {
				protected = append(protected, op)
			}
		}
	}

	var c collector
	for _, login := range logins {
		for _, signup := range signups {
			c.add(models.Hint{Source: signup.ID, Target: login.ID, Kind: models.HintWorkflow, Reason: "sign up before logging in"})
		}
	}
	for _, login := range logins {
		for _, op := range protected {
			c.add(models.Hint{Source: login.ID, Target: op.ID, Kind: models.HintWorkflow, Reason: op.ID + " requires authentication"})
		}
	}
	for _, login := range logins {
		for _, logout := range logouts {
			c.add(models.Hint{Source: login.ID, Target: logout.ID, Kind: models.HintWorkflow, Reason: "log out last"})
		}
	}
	return c.hints
}

// classify matches workflow keywords against the operation id, path and tags
func classify(op *models.Operation) role {
	text := compact(op.ID + " " + op.Path + " " + strings.Join(op.Tags, " "))
	switch {
	case containsAny(text, logoutWords):
		return roleLogout
	case containsAny(text, signupWords):
		return roleSignup
	case containsAny(text, loginWords) || hasWord(op, "auth"):
		return roleLogin
	}
	return roleNone
}

// needsCredentials reports whether op declares security, is an admin
// operation, or changes a specific resource
func needsCredentials(op *models.Operation) bool {
	if op.Secured || hasWord(op, "admin") {
		return true
	}
	return op.Method != http.MethodGet && len(op.PathParameters()) > 0
}

// hasWord reports whether word appears as a whole word in the operation id,
// path or tags. Camel case and punctuation separate words.
func hasWord(op *models.Operation, word string) bool {
	for _, s := range append([]string{op.ID, op.Path}, op.Tags...) {
		for _, w := range words(s) {
			if w == word {
				return true
			}
		}
	}
	return false
}

func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	prevLower := false
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			flush()
		}
		cur = append(cur, r)
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	flush()
	return out
}

// compact lowercases s and strips everything but letters and digits
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func pathSegments(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

func normalizePath(path string) string {
	return "/" + strings.Join(pathSegments(path), "/")
}

func staticSegments(path string) []string {
	var out []string
	for _, seg := range pathSegments(path) {
		if !isParam(seg) {
			out = append(out, seg)
		}
	}
	return out
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{")
}

// subset reports whether every element of a is in b
func subset(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	for _, s := range a {
		if !set[s] {
			return false
		}
	}
	return true
}
