package readinglists

import (
	"fmt"
)

// Kind classifies a reading list Error.
type Kind int

const (
	KindGeneric Kind = iota
	KindListExistsWithTheSameName
	KindUnableToCreateList
	KindUnableToDeleteList
	KindUnableToUpdateList
	KindUnableToAddEntry
	KindUnableToRemoveEntry
	KindEntryLimitReached
	KindListWithProvidedNameNotFound
	KindListLimitReached
	KindListEntryLimitsReached
)

func (k Kind) String() string {
	switch k {
	case KindListExistsWithTheSameName:
		return "list_exists_with_the_same_name"
	case KindUnableToCreateList:
		return "unable_to_create_list"
	case KindUnableToDeleteList:
		return "unable_to_delete_list"
	case KindUnableToUpdateList:
		return "unable_to_update_list"
	case KindUnableToAddEntry:
		return "unable_to_add_entry"
	case KindUnableToRemoveEntry:
		return "unable_to_remove_entry"
	case KindEntryLimitReached:
		return "entry_limit_reached"
	case KindListWithProvidedNameNotFound:
		return "list_with_provided_name_not_found"
	case KindListLimitReached:
		return "list_limit_reached"
	case KindListEntryLimitsReached:
		return "list_entry_limits_reached"
	default:
		return "generic"
	}
}

// Error is a validation or persistence error raised by the controller.
// Use errors.Is with the Err* sentinels to test the kind and errors.As to
// read the interpolated fields.
type Error struct {
	Kind       Kind
	Name       string
	Count      int
	Limit      int
	ListLimit  int
	EntryLimit int

	// Err is the underlying store error, if any.
	Err error
}

var (
	ErrGeneric                      = &Error{Kind: KindGeneric}
	ErrListExistsWithTheSameName    = &Error{Kind: KindListExistsWithTheSameName}
	ErrUnableToCreateList           = &Error{Kind: KindUnableToCreateList}
	ErrUnableToDeleteList           = &Error{Kind: KindUnableToDeleteList}
	ErrUnableToUpdateList           = &Error{Kind: KindUnableToUpdateList}
	ErrUnableToAddEntry             = &Error{Kind: KindUnableToAddEntry}
	ErrUnableToRemoveEntry          = &Error{Kind: KindUnableToRemoveEntry}
	ErrEntryLimitReached            = &Error{Kind: KindEntryLimitReached}
	ErrListWithProvidedNameNotFound = &Error{Kind: KindListWithProvidedNameNotFound}
	ErrListLimitReached             = &Error{Kind: KindListLimitReached}
	ErrListEntryLimitsReached       = &Error{Kind: KindListEntryLimitsReached}
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindListExistsWithTheSameName:
		return "A reading list already exists with that name"
	case KindUnableToCreateList:
		return "An unexpected error occurred while creating your reading list. Please try again later."
	case KindUnableToDeleteList:
		return "An unexpected error occurred while deleting a reading list. Please try again later."
	case KindUnableToUpdateList:
		return "An unexpected error occurred while updating a reading list. Please try again later."
	case KindUnableToAddEntry:
		return "An unexpected error occurred while adding an entry to your reading list. Please try again later."
	case KindUnableToRemoveEntry:
		return "An unexpected error occurred while removing an entry from your reading list. Please try again later."
	case KindEntryLimitReached:
		return fmt.Sprintf("%s cannot be added to %s: limit of %s per reading list reached",
			articles(e.Count), e.Name, articles(e.Limit))
	case KindListWithProvidedNameNotFound:
		return fmt.Sprintf("A reading list with the name %s was not found. Please make sure you have the correct name.", e.Name)
	case KindListLimitReached:
		return fmt.Sprintf("You have reached the limit of %d reading lists per account.", e.Limit)
	case KindListEntryLimitsReached:
		return fmt.Sprintf("You cannot create list %s with %s: limit of %d reading lists per account and %s per reading list reached",
			e.Name, articles(e.Count), e.ListLimit, articles(e.EntryLimit))
	default:
		return "An unexpected error occurred while updating your reading lists. Please try again later."
	}
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func articles(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}

func storeError(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

func entryLimitReached(name string, count, limit int) error {
	return &Error{Kind: KindEntryLimitReached, Name: name, Count: count, Limit: limit}
}

func listLimitReached(limit int) error {
	return &Error{Kind: KindListLimitReached, Limit: limit}
}

func listEntryLimitsReached(name string, count, listLimit, entryLimit int) error {
	return &Error{Kind: KindListEntryLimitsReached, Name: name, Count: count, ListLimit: listLimit, EntryLimit: entryLimit}
}

func listNotFound(name string) error {
	return &Error{Kind: KindListWithProvidedNameNotFound, Name: name}
}
