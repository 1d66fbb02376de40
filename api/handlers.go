package api

import (
	"net/http"
	"strings"

	"github.com/matanmeltz/asm15/object"
	"github.com/matanmeltz/asm15/parser"
)

// handleAssemble handles POST /api/v1/assemble: the full pipeline over
// in-memory source. Once the pipeline has run, its per-line
// diagnostics and warnings are pushed to WebSocket subscribers,
// followed by a result event.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AssembleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, http.StatusBadRequest, "Source is required")
		return
	}
	name := req.Name
	if name == "" {
		name = "input"
	}

	prog, errs := parser.Assemble(req.Source, name+".as", name+".am")
	obj, resolveErrs := object.Resolve(prog)
	errs.Merge(resolveErrs)

	response := AssembleResponse{
		Success:  !errs.HasErrors(),
		IC:       prog.IC,
		DC:       prog.DC,
		Errors:   diagnostics(errs),
		Warnings: warnings(errs),
	}

	for _, d := range response.Errors {
		s.hub.Broadcast(AssembleEvent{
			Type: "diagnostic", Name: name, File: d.File, Line: d.Line, Message: d.Message,
		})
	}
	for _, d := range response.Warnings {
		s.hub.Broadcast(AssembleEvent{
			Type: "warning", Name: name, File: d.File, Line: d.Line, Message: d.Message,
		})
	}

	if response.Success {
		response.ObjectFile = obj.ObjectListing()
		response.EntryFile = obj.EntryListing()
		response.ExternalFile = obj.ExternalListing()
		response.Symbols = obj.Symbols(prog.Decls)
	}

	s.hub.Broadcast(AssembleEvent{Type: "result", Name: name, Success: response.Success})

	writeJSON(w, http.StatusOK, response)
}

// diagnostics converts an error list's errors to wire form
func diagnostics(errs *parser.ErrorList) []DiagnosticInfo {
	out := make([]DiagnosticInfo, 0, len(errs.Errors))
	for _, d := range errs.Errors {
		out = append(out, DiagnosticInfo{File: d.Pos.Filename, Line: d.Pos.Line, Message: d.Message})
	}
	return out
}

// warnings converts an error list's warnings to wire form
func warnings(errs *parser.ErrorList) []DiagnosticInfo {
	out := make([]DiagnosticInfo, 0, len(errs.Warnings))
	for _, w := range errs.Warnings {
		out = append(out, DiagnosticInfo{File: w.Pos.Filename, Line: w.Pos.Line, Message: w.Message})
	}
	return out
}
