package gate

import "sync"

// HoneypotField is the hidden input bots tend to fill in.
const HoneypotField = "website"

// Form is the submitted field set the gate inspects.
type Form interface {
	// Field returns the value and whether the field was present at all.
	Field(name string) (string, bool)
	// InjectField asks the form to carry an empty hidden field from now on.
	InjectField(name string)
}

// FormValues is a Form over decoded request fields.
type FormValues struct {
	mu       sync.Mutex
	values   map[string]string
	injected []string
}

// NewFormValues wraps values. A nil map is a form with no fields.
func NewFormValues(values map[string]string) *FormValues {
	if values == nil {
		values = map[string]string{}
	}
	return &FormValues{values: values}
}

func (f *FormValues) Field(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return v, ok
}

func (f *FormValues) InjectField(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[name]; ok {
		return
	}
	f.values[name] = ""
	f.injected = append(f.injected, name)
}

// Injected lists fields added by InjectField, for the client to render next time.
func (f *FormValues) Injected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.injected))
	copy(out, f.injected)
	return out
}

// CheckHoneypot passes when the honeypot is present and empty. A missing honeypot is
// injected and the attempt passes.
func CheckHoneypot(form Form) bool {
	v, ok := form.Field(HoneypotField)
	if !ok {
		form.InjectField(HoneypotField)
		return true
	}
	return v == ""
}
