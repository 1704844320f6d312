package pipeline

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dgallion1/scanbook/internal/toc"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusRendering   JobStatus = "rendering"
	StatusRecognizing JobStatus = "recognizing"
	StatusAssembling  JobStatus = "assembling"
	StatusPackaging   JobStatus = "packaging"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusPartial     JobStatus = "partial"
)

// Terminal reports whether no further transitions follow.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Artifact names used as keys of Job.Outputs.
const (
	ArtifactEPUB       = "epub"
	ArtifactDOCX       = "docx"
	ArtifactReport     = "report"
	ArtifactReportHTML = "report.html"
)

// Job tracks the state of a single book conversion.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	// Chapters are the validated user chapters, in book-page coordinates.
	Chapters []toc.Chapter `json:"chapters"`
	// Offset is pdfPage - bookPage.
	Offset   int  `json:"offset"`
	WantDOCX bool `json:"want_docx"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	outputs  map[string]string
	errors   []string
	events   []Event
	subs     map[chan Event]struct{}
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages      int      `json:"total_pages"`
	PagesRendered   int      `json:"pages_rendered"`
	PagesRecognized int      `json:"pages_recognized"`
	PagesCached     int      `json:"pages_cached"`
	PagesFailed     int      `json:"pages_failed"`
	Chapters        int      `json:"chapters"`
	Sections        int      `json:"sections"`
	AbnormalWords   int      `json:"abnormal_words"`
	Errors          []string `json:"errors"`
}

// Event is one progress message. Seq starts at 1 and has no gaps.
type Event struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Status  JobStatus `json:"status"`
	Message string    `json:"message"`
}

// ProgressFunc receives human-readable milestone messages.
type ProgressFunc func(msg string)

// subscriberBuffer bounds how far a subscriber may fall behind before live
// events are dropped for it. The event log itself is always complete.
const subscriberBuffer = 64

// NewJob returns a queued job for the given source bytes. The document id is
// derived from the content so identical uploads share a page cache.
func NewJob(id, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		DocID:     DocumentID(data),
		Status:    StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed within the TTL.
// Jobs still in flight are kept regardless of age.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status and emits a progress event for the phase.
// Reaching a terminal status closes every subscriber.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.emitLocked(phase)
	if status.Terminal() {
		for ch := range j.subs {
			close(ch)
		}
		j.subs = nil
	}
}

// Notify appends a progress message to the event log and fans it out.
func (j *Job) Notify(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.UpdatedAt = time.Now()
	j.emitLocked(msg)
}

func (j *Job) emitLocked(msg string) {
	ev := Event{
		Seq:     len(j.events) + 1,
		Time:    j.UpdatedAt,
		Status:  j.Status,
		Message: msg,
	}
	j.events = append(j.events, ev)
	for ch := range j.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns the events emitted so far and a channel of later ones.
// The channel is closed when the job finishes or cancel is called. For a
// job that already finished the channel is returned closed.
func (j *Job) Subscribe() (past []Event, live <-chan Event, cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	past = make([]Event, len(j.events))
	copy(past, j.events)

	ch := make(chan Event, subscriberBuffer)
	if j.Status.Terminal() {
		close(ch)
		return past, ch, func() {}
	}
	if j.subs == nil {
		j.subs = make(map[chan Event]struct{})
	}
	j.subs[ch] = struct{}{}

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			j.mu.Lock()
			defer j.mu.Unlock()
			if _, ok := j.subs[ch]; ok {
				delete(j.subs, ch)
				close(ch)
			}
		})
	}
	return past, ch, cancel
}

// Events returns a copy of the event log.
func (j *Job) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Event, len(j.events))
	copy(out, j.events)
	return out
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// UpdateProgress applies fn to the progress counters under the job lock.
func (j *Job) UpdateProgress(fn func(p *Progress)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.Progress)
	j.UpdatedAt = time.Now()
}

// SetOutput records the storage key of a finished artifact.
func (j *Job) SetOutput(artifact, key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.outputs == nil {
		j.outputs = make(map[string]string)
	}
	j.outputs[artifact] = key
	j.UpdatedAt = time.Now()
}

// Output returns the storage key of an artifact, if it has been produced.
func (j *Job) Output(artifact string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	key, ok := j.outputs[artifact]
	return key, ok
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been written to the workspace.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string            `json:"job_id"`
	DocID     string            `json:"doc_id"`
	Status    JobStatus         `json:"status"`
	Phase     string            `json:"phase"`
	Filename  string            `json:"filename"`
	Title     string            `json:"title"`
	Offset    int               `json:"offset"`
	Chapters  []toc.Chapter     `json:"chapters"`
	Progress  Progress          `json:"progress"`
	Outputs   map[string]string `json:"outputs"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	progress := j.Progress
	progress.Errors = append([]string{}, j.errors...)

	chapters := append([]toc.Chapter{}, j.Chapters...)
	outputs := make(map[string]string, len(j.outputs))
	for k, v := range j.outputs {
		outputs[k] = v
	}

	return JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		Offset:    j.Offset,
		Chapters:  chapters,
		Progress:  progress,
		Outputs:   outputs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes the BLAKE3-256 digest of content as hex.
func ContentHashHex(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// DocumentID is the workspace key of a source document: the first 128 bits
// of its content hash.
func DocumentID(data []byte) string {
	return ContentHashHex(data)[:32]
}
