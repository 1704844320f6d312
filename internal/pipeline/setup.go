package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/scanbook/internal/abnormal"
	"github.com/dgallion1/scanbook/internal/alphabet"
	"github.com/dgallion1/scanbook/internal/config"
	"github.com/dgallion1/scanbook/internal/correction"
	"github.com/dgallion1/scanbook/internal/dictionary"
	"github.com/dgallion1/scanbook/internal/ocr"
	"github.com/dgallion1/scanbook/internal/pdfimage"
	"github.com/dgallion1/scanbook/internal/storage"
)

// statsWindow is how long OCR latency samples are kept.
const statsWindow = 15 * time.Minute

// Resources are the long-lived collaborators built from configuration.
type Resources struct {
	Converter *Converter
	Storage   storage.Adapter
	OCRStats  *ocr.Stats

	closers []func() error
}

// Close releases open documents and storage connections.
func (r *Resources) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Setup loads the reference dictionaries once, opens output storage and
// builds the recognizer chain selected by cfg.OCREngine.
func Setup(cfg config.Config, log *slog.Logger) (*Resources, error) {
	res := &Resources{OCRStats: ocr.NewStats(statsWindow)}

	store, err := storage.New(storage.Options{
		Adapter: cfg.StorageAdapter,
		BaseDir: cfg.OutputDir,
		S3: storage.S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	res.Storage = store
	res.closers = append(res.closers, store.Close)

	recognizer, needsImages, closeOCR, err := buildRecognizer(cfg, res.OCRStats, log)
	if err != nil {
		res.Close()
		return nil, err
	}
	res.closers = append(res.closers, closeOCR)

	corrector, vocab, err := loadDictionaries(cfg, log)
	if err != nil {
		res.Close()
		return nil, err
	}

	conv := &Converter{
		Recognizer:       recognizer,
		CountPages:       pdfimage.PageCount,
		Storage:          store,
		Corrector:        corrector,
		Vocabulary:       vocab,
		Alphabet:         alphabet.Default,
		DataDir:          cfg.DataDir,
		MaxConcurrentOCR: cfg.MaxConcurrentOCR,
		PageTimeout:      cfg.OCRPageTimeout,
		Language:         cfg.ReportLocale,
		DefaultTitle:     cfg.DefaultTitle,
		Log:              log,
	}
	if needsImages {
		conv.Renderer = pdfimage.NewRenderer(cfg.OCRDPI, cfg.MaxConcurrentOCR, log)
	}
	res.Converter = conv
	return res, nil
}

// buildRecognizer returns the configured engine wrapped with retries and
// latency tracking. needsImages is false when only the PDF text layer is
// read.
func buildRecognizer(cfg config.Config, stats *ocr.Stats, log *slog.Logger) (ocr.Recognizer, bool, func() error, error) {
	textLayer := ocr.NewTextLayer()
	tess := ocr.NewTesseract(cfg.OCRLanguage)
	attempts := ocrAttempts(cfg.OCRMaxRetries)

	// The text layer is read with the Go reader first, then with poppler
	// when it is installed.
	layer := ocr.Chain{textLayer}
	if pt := ocr.NewPdftotext(); pt.Available() == nil {
		layer = append(layer, pt)
	}

	var (
		r           ocr.Recognizer
		needsImages bool
	)
	switch cfg.OCREngine {
	case "textlayer":
		r = layer
	case "tesseract":
		if err := tess.Available(); err != nil {
			return nil, false, nil, err
		}
		r = ocr.WithRetry(tess, attempts, log)
		needsImages = true
	case "auto":
		if err := tess.Available(); err != nil {
			log.Warn("tesseract unavailable, using PDF text layer only", "error", err)
			r = layer
		} else {
			r = append(layer, ocr.WithRetry(tess, attempts, log))
			needsImages = true
		}
	default:
		return nil, false, nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}

	log.Info("recognizer ready", "engine", r.Name(), "renders_images", needsImages)
	return ocr.Timed{Recognizer: r, Stats: stats}, needsImages, textLayer.Close, nil
}

// ocrAttempts converts a retry count into total attempts per page.
func ocrAttempts(retries int) uint {
	return uint(max(retries, 0)) + 1
}

// loadDictionaries reads the optional correction dictionary and vocabularies.
// A missing file disables its feature with a warning.
func loadDictionaries(cfg config.Config, log *slog.Logger) (*correction.Corrector, abnormal.Vocabulary, error) {
	var vocab abnormal.Vocabulary

	dict, loaded, err := dictionary.LoadCorrections(cfg.CorrectionsPath)
	if err != nil {
		return nil, vocab, fmt.Errorf("load corrections: %w", err)
	}
	var corrector *correction.Corrector
	if loaded {
		corrector = correction.New(dict, alphabet.Default)
		log.Info("correction dictionary loaded", "path", cfg.CorrectionsPath, "entries", corrector.Len())
	} else {
		log.Warn("correction dictionary not loaded, text corrections disabled", "path", cfg.CorrectionsPath)
	}

	sets := []struct {
		name string
		path string
		dst  *abnormal.WordSet
	}{
		{"vocabulary", cfg.VocabularyPath, &vocab.Known},
		{"ignore words", cfg.IgnoreWordsPath, &vocab.Ignore},
		{"secondary vocabulary", cfg.SecondaryVocabularyPath, &vocab.Secondary},
	}
	for _, s := range sets {
		words, loaded, err := dictionary.LoadWordSet(s.path)
		if err != nil {
			return nil, vocab, fmt.Errorf("load %s: %w", s.name, err)
		}
		if !loaded {
			log.Warn("word list not loaded", "list", s.name, "path", s.path)
			continue
		}
		*s.dst = words
		log.Info("word list loaded", "list", s.name, "words", len(words))
	}
	if len(vocab.Known) == 0 {
		log.Warn("no vocabulary loaded, abnormal word tracking disabled")
	}

	return corrector, vocab, nil
}

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}

var epubNamespace = uuid.MustParse("6f8b3c52-0d7e-4b8e-9a61-5c2f1e3d7a90")

// uuidFromDocID derives a stable book identifier, so re-converting the same
// scan yields an EPUB that readers treat as the same publication.
func uuidFromDocID(docID string) string {
	return uuid.NewSHA1(epubNamespace, []byte(docID)).String()
}
