package handlers

import (
	appsimmap "github.com/sj-huang/rdkit-m/internal/application/simmap"
	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// ─────────────────────────────────────────────────────────────────────────────
// Requests
// ─────────────────────────────────────────────────────────────────────────────

func toSpec(fs *dto.FingerprintSpec) domain.Spec {
	if fs == nil {
		return domain.Spec{}
	}
	return domain.Spec(*fs)
}

func toModel(m *dto.ModelSpec) *domain.ModelSpec {
	if m == nil {
		return nil
	}
	dm := domain.ModelSpec(*m)
	return &dm
}

func toMapOptions(o dto.MapOptions) domain.MapOptions {
	return domain.MapOptions{
		Size:       o.Size,
		Sigma:      o.Sigma,
		Step:       o.Step,
		Contours:   o.Contours,
		ColorMap:   o.ColorMap,
		Alpha:      o.Alpha,
		BondLength: o.BondLength,
		Padding:    o.Padding,
		Format:     o.Format,
	}
}

func toMapRequest(r *dto.MapRequest) *domain.MapRequest {
	return &domain.MapRequest{
		Kind:      r.Kind,
		Reference: r.Reference,
		Probe:     r.Probe,
		Spec:      toSpec(r.Fingerprint),
		Metric:    r.Metric,
		Model:     toModel(r.Model),
		Options:   toMapOptions(r.Options),
		Label:     r.Label,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Responses
// ─────────────────────────────────────────────────────────────────────────────

func fromWeights(w *appsimmap.WeightsResult) dto.WeightsResponse {
	return dto.WeightsResponse{
		Weights:      w.Weights,
		Standardized: w.Standardized,
		MaxWeight:    w.MaxWeight,
		Fingerprint:  w.Fingerprint,
		Metric:       w.Metric,
		Cached:       w.Cached,
	}
}

func fromRecord(r *domain.MapRecord) dto.MapRecord {
	return dto.MapRecord{
		ID:          r.ID,
		Kind:        r.Kind,
		Label:       r.Label,
		Reference:   r.Reference,
		Probe:       r.Probe,
		Fingerprint: dto.FingerprintSpec(r.Spec),
		Metric:      r.Metric,
		Weights:     r.Weights,
		MaxWeight:   r.MaxWeight,
		ImageFormat: r.ImageFormat,
		HasImage:    r.ImageKey != "",
		CreatedAt:   r.CreatedAt,
	}
}

// fromMapResult inlines the image only when it was not stored.
func fromMapResult(res *appsimmap.MapResult) dto.MapResponse {
	out := dto.MapResponse{Map: fromRecord(res.Record), Persisted: res.Persisted}
	if res.Record.ImageKey == "" {
		out.Image = res.Image
	}
	return out
}

func fromJob(j *domain.JobRecord) dto.JobStatus {
	return dto.JobStatus{
		ID:          j.ID,
		Status:      j.Status,
		MapID:       j.MapID,
		Attempts:    j.Attempts,
		Error:       j.Error,
		SubmittedAt: j.SubmittedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

func fromReference(r *domain.Reference) dto.Reference {
	return dto.Reference{ID: r.ID, Name: r.Name, SMILES: r.SMILES}
}

func fromMatch(m domain.ReferenceMatch) dto.ReferenceMatch {
	return dto.ReferenceMatch{Reference: fromReference(&m.Reference), Distance: m.Distance}
}

//Personal.AI order the ending
