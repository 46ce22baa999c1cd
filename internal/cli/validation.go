// Package cli provides CLI commands for the aspen application.
package cli

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/aspen/internal/archive"
	"github.com/example/aspen/internal/ctxutil"
	"github.com/example/aspen/internal/wire"
)

// entityKinds maps kind names accepted on the command line to archive kinds.
var entityKinds = map[string]archive.Kind{
	"subject":    archive.KindSubject,
	"session":    archive.KindSession,
	"run":        archive.KindRun,
	"recording":  archive.KindRecording,
	"protocol":   archive.KindProtocol,
	"channels":   archive.KindChannels,
	"electrodes": archive.KindElectrodes,
	"file":       archive.KindFile,
}

var idPattern = regexp.MustCompile(`^#?(\d+)$`)

// parseKind checks a kind argument.
func parseKind(s string) (archive.Kind, error) {
	kind, ok := entityKinds[strings.ToLower(s)]
	if !ok {
		names := make([]string, 0, len(entityKinds))
		for name := range entityKinds {
			names = append(names, name)
		}
		slices.Sort(names)
		return "", fmt.Errorf("unknown entity kind '%s'. Expected one of: %s", s, strings.Join(names, ", "))
	}
	return kind, nil
}

// parseID reads an entity id, accepting "12" and "#12".
func parseID(s, kind string) (int64, error) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid %s ID '%s'. Expected a number such as 12", kind, s)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, s)
	}
	return id, nil
}

func parseIDs(args []string, kind string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a, kind)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// commandContext carries the editing user recorded in the audit log.
func commandContext(cmd *cobra.Command) context.Context {
	user := wire.Config().User
	if user == "" {
		user = os.Getenv("USER")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctxutil.WithUser(ctx, user)
}

// transact runs fn against the archive inside one transaction; an error rolls
// back every edit the command made.
func transact(cmd *cobra.Command, fn func(ctx context.Context, a *archive.Archive) error) error {
	a := wire.Archive()
	return a.Transact(commandContext(cmd), func(ctx context.Context) error {
		return fn(ctx, a)
	})
}

// lookup returns the record of any entity kind.
func lookup(ctx context.Context, a *archive.Archive, kind archive.Kind, id int64) (archive.Record, error) {
	switch kind {
	case archive.KindSubject:
		e, err := a.Subject(ctx, id)
		return e.Record, err
	case archive.KindSession:
		e, err := a.Session(ctx, id)
		return e.Record, err
	case archive.KindRun:
		e, err := a.Run(ctx, id)
		return e.Record, err
	case archive.KindRecording:
		e, err := a.Recording(ctx, id)
		return e.Record, err
	case archive.KindProtocol:
		e, err := a.Protocol(ctx, id)
		return e.Record, err
	case archive.KindChannels:
		e, err := a.Channels(ctx, id)
		return e.Record, err
	case archive.KindElectrodes:
		e, err := a.Electrodes(ctx, id)
		return e.Record, err
	case archive.KindFile:
		e, err := a.File(ctx, id)
		return e.Record, err
	}
	return archive.Record{}, fmt.Errorf("unknown entity kind %q", kind)
}
