package recommendations

import "errors"

var (
	ErrNoClient       = errors.New("no llm client configured")
	ErrNoJSON         = errors.New("llm response contains no json object")
	ErrMissingOverall = errors.New("llm response missing overall")
	ErrNoCategories   = errors.New("llm response missing categories")
)
