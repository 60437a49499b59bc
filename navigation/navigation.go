package navigation

import "sync"

// LoginPath is the public login surface.
const LoginPath = "/login"

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(path string)
}

// Func adapts a function to a Navigator.
type Func func(path string)

func (f Func) Navigate(path string) {
	f(path)
}

// Recorder remembers navigation requests until they are taken. The server uses one per
// client context and turns the pending path into a redirect response.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Take returns the most recent pending path and forgets all pending ones.
func (r *Recorder) Take() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return "", false
	}
	last := r.paths[len(r.paths)-1]
	r.paths = nil
	return last, true
}

// Paths returns every pending path in order.
func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
