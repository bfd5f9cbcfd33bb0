package errors_test

import (
	"fmt"

	"github.com/jwp-tools/jwpedit/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewNotFoundError("session", "3f2a")

	if errors.IsNotFound(err) {
		fmt.Println("Resource not found")
	}

	// Output: Resource not found
}

// Example_storeError shows how a sheet failure is classified.
func Example_storeError() {
	err := fmt.Errorf("loading rows: %w", errors.NewSheetNotFoundError("Master Data"))

	fmt.Println(errors.IsStoreUnavailable(err))
	fmt.Println(errors.IsNotFound(err))
	fmt.Println(err)

	// Output:
	// true
	// true
	// loading rows: sheet "Master Data" not found
}

// Example_partialWrite shows a row whose Spending cell was not stored.
func Example_partialWrite() {
	err := &errors.PartialWriteError{
		Ordinal:        3,
		SheetRow:       5,
		FailedColumns:  []int{6},
		WrittenColumns: []int{5, 7, 8},
		Err:            errors.New("quota exceeded"),
	}

	if errors.IsPartialWrite(err) && err.AnyWritten() {
		fmt.Println("row partially edited")
	}

	// Output: row partially edited
}

// Example_validation demonstrates input validation errors.
func Example_validation() {
	err := errors.NewValidationError("agency", "NASA", "unknown agency")

	fmt.Println(err)
	fmt.Println(errors.IsValidationError(err))

	// Output:
	// validation failed for field agency: unknown agency
	// true
}
