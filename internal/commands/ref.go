package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rtodo/internal/exitcode"
	"rtodo/internal/service"
	"rtodo/internal/todos"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a 1-based task number from args.
func ParseTaskRef(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	num, err := strconv.Atoi(args[0])
	if err != nil || num < 1 {
		return 0, fmt.Errorf("invalid task reference: %s", args[0])
	}
	return num, nil
}

// resolveTask fetches the current list and returns the task at the 1-based
// position num.
func resolveTask(ctx context.Context, store *todos.Store, num int, errOut io.Writer) (service.Task, int, bool) {
	if err := store.Fetch(ctx); err != nil {
		return service.Task{}, failure(errOut, err), false
	}
	tasks := store.Tasks()
	if num > len(tasks) {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
		return service.Task{}, exitcode.UserError, false
	}
	return tasks[num-1], 0, true
}

// parseLocation parses "lat,lng" into a LocationData without a timestamp;
// the caller stamps it.
func parseLocation(s string) (*service.LocationData, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid location (want lat,lng): %s", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", parts[1])
	}
	return &service.LocationData{Latitude: lat, Longitude: lng}, nil
}

// failure prints err classified by kind and returns the matching exit code.
func failure(errOut io.Writer, err error) int {
	switch {
	case service.IsAuth(err):
		fmt.Fprintf(errOut, "error: %v (run: rtodo login)\n", err)
		return exitcode.AuthError
	case service.IsValidation(err), service.IsNotFound(err):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
