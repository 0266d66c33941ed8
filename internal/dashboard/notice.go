package dashboard

import (
	"context"
	"errors"

	"github.com/nikbrunner/stash/internal/bulk"
	"github.com/nikbrunner/stash/internal/model"
	"github.com/nikbrunner/stash/internal/remote"
	"github.com/nikbrunner/stash/internal/storage"
	"github.com/nikbrunner/stash/internal/tagarea"
)

// NoticeKind groups errors by what the user can do about them.
type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	NoticeInfo
	NoticeConnectivity
	NoticeSetup
	NoticeValidation
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeInfo:
		return "info"
	case NoticeConnectivity:
		return "connectivity"
	case NoticeSetup:
		return "setup"
	case NoticeValidation:
		return "validation"
	case NoticeError:
		return "error"
	default:
		return "none"
	}
}

// Notice is the one-line message shown under the list.
type Notice struct {
	Kind    NoticeKind
	Message string
}

func (n Notice) IsZero() bool { return n.Kind == NoticeNone }

// Info builds an informational notice.
func Info(msg string) Notice {
	return Notice{Kind: NoticeInfo, Message: msg}
}

var validationErrors = []error{
	model.ErrURLRequired,
	tagarea.ErrNameRequired,
	tagarea.ErrDuplicateName,
	tagarea.ErrSameArea,
	bulk.ErrEmptySelection,
	bulk.ErrNotSelecting,
	bulk.ErrNotConfirmed,
}

// Classify maps err to a notice. A nil error yields the zero notice.
func Classify(err error) Notice {
	if err == nil {
		return Notice{}
	}

	switch {
	case errors.Is(err, remote.ErrUnreachable),
		errors.Is(err, context.DeadlineExceeded):
		return Notice{Kind: NoticeConnectivity, Message: "Can't reach the bookmark store."}
	case errors.Is(err, remote.ErrSchemaMissing):
		return Notice{Kind: NoticeSetup, Message: "The bookmark tables are missing. Run `stash setup --print-sql` and apply it."}
	case errors.Is(err, storage.ErrSetupRequired):
		return Notice{Kind: NoticeSetup, Message: "No bookmark store configured. Run `stash setup`."}
	}

	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return Notice{Kind: NoticeValidation, Message: v.Error()}
		}
	}
	return Notice{Kind: NoticeError, Message: err.Error()}
}
