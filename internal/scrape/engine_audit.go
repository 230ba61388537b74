package scrape

import (
	"context"

	"vellum/internal/audit"
	"vellum/internal/browser"
	"vellum/internal/logging"
	"vellum/internal/textparse"
)

// CollectAuditRows parses the status-history and correspondence tables of the
// manuscript detail page the surface is currently on. Both tables are
// optional on either platform family, so an empty result is not an error;
// callers fall back to inferring events from manuscript fields.
func (e *Engine) CollectAuditRows(ctx context.Context, ref ManuscriptRef) ([]audit.Row, error) {
	rs := &runState{manuscriptID: ref.ID}
	var rows []audit.Row
	err := e.inContent(ctx, rs, func(s browser.Surface) error {
		doc, err := snapshotSurface(ctx, s)
		if err != nil {
			return err
		}
		if sel := e.profile.StatusHistorySelector; sel != "" {
			rows = append(rows, audit.StatusHistoryRows(textparse.TableRows(doc, sel))...)
		}
		if sel := e.profile.CorrespondenceSelector; sel != "" {
			rows = append(rows, audit.CorrespondenceRows(textparse.TableRows(doc, sel))...)
		}
		return nil
	})
	if err != nil {
		e.ctrl.NoteError(err)
		return nil, err
	}
	e.logger.Debug("collected audit rows",
		logging.String(logging.FieldManuscriptID, ref.ID),
		logging.Int("rows", len(rows)),
	)
	return rows, nil
}
