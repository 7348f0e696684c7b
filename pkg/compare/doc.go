// Package compare assembles a comparison workspace.
//
// A [Workspace] owns everything one comparison session needs: the upstream
// clients sharing one HTTP stack, the selection, the suggestion list, the
// notification center and the size, version and downloads panels bound to
// the selection. Selecting a package fetches its registry details; every
// panel then enriches the new selection on its own, so a slow or failing
// dimension never holds back the others.
//
//	ws, err := compare.New(ctx, compare.Options{Config: cfg})
//	if err != nil {
//		return err
//	}
//	defer ws.Close()
//
//	_, _ = ws.Select(ctx, "lodash")
//	_, _ = ws.Select(ctx, "axios")
//	ws.Wait()
//	report := ws.Report()
//
// Workspaces are independent values; nothing is shared between them.
package compare
