package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
)

const (
	minSamplesRegression = 5
	minSamplesClustering = 4
	maxClusters          = 3

	minPredictedMinutes = 1
	maxPredictedMinutes = 600

	clusterSeed       = 42
	clusterRestarts   = 10
	clusterIterations = 100
)

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// MLService answers read-only questions about a user's session history.
type MLService struct {
	eventRepo *repository.EventRepository
}

func NewMLService(eventRepo *repository.EventRepository) *MLService {
	return &MLService{eventRepo: eventRepo}
}

// DurationModel predicts realistic task durations from completed sessions.
// Features per sample: estimated minutes, difficulty rank, subject average of
// actual minutes. A fresh model is fitted for every generation run.
type DurationModel struct {
	coef       [4]float64 // intercept + one weight per feature
	samples    int
	subjectAvg map[uint]float64
}

// FitDurationModel trains a least-squares linear regression on the user's done
// sessions. It returns nil when fewer than minSamplesRegression usable samples
// exist or the system is too degenerate to solve; callers then fall back to the
// task's own estimate.
func FitDurationModel(events []model.SessionEvent) *DurationModel {
	subjectAvg := subjectAverages(events)

	type sample struct {
		estimated  float64
		difficulty float64
		subjectAvg float64
		actual     float64
	}

	var samples []sample
	for _, e := range events {
		if e.Outcome != model.OutcomeDone || e.EstimatedMinutes <= 0 {
			continue
		}
		avg := 0.0
		if e.SubjectID != 0 {
			avg = subjectAvg[e.SubjectID]
			if avg == 0 {
				// Singleton subject: use the session's own actual time so the
				// feature carries signal instead of a flat zero.
				avg = float64(e.Minutes)
			}
		}
		samples = append(samples, sample{
			estimated:  float64(e.EstimatedMinutes),
			difficulty: float64(model.DifficultyRank(e.Difficulty)),
			subjectAvg: avg,
			actual:     float64(e.Minutes),
		})
	}

	if len(samples) < minSamplesRegression {
		return nil
	}

	x := mat.NewDense(len(samples), 4, nil)
	y := mat.NewDense(len(samples), 1, nil)
	for i, s := range samples {
		x.SetRow(i, []float64{1, s.estimated, s.difficulty, s.subjectAvg})
		y.Set(i, 0, s.actual)
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil
	}

	m := &DurationModel{samples: len(samples), subjectAvg: subjectAvg}
	for i := 0; i < 4; i++ {
		m.coef[i] = beta.At(i, 0)
	}
	return m
}

// Predict estimates realistic minutes for the task, clamped to
// [minPredictedMinutes, maxPredictedMinutes], together with a human-readable
// explanation. ok is false when the model cannot predict for this task.
func (m *DurationModel) Predict(task model.Task) (minutes int, explain string, ok bool) {
	if m == nil || task.EstimatedMinutes <= 0 {
		return 0, "", false
	}

	est := float64(task.EstimatedMinutes)
	avg := 0.0
	if task.SubjectID != 0 {
		avg = m.subjectAvg[task.SubjectID]
	}
	if avg == 0 {
		avg = est
	}

	raw := m.coef[0] + m.coef[1]*est + m.coef[2]*float64(model.DifficultyRank(task.Difficulty)) + m.coef[3]*avg
	pred := int(math.Round(raw))
	if pred < minPredictedMinutes {
		pred = minPredictedMinutes
	}
	if pred > maxPredictedMinutes {
		pred = maxPredictedMinutes
	}

	difficulty := strings.ToLower(task.Difficulty)
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	ratio := int(math.Round(float64(pred) / est * 100))
	explain = fmt.Sprintf(
		"ML prediction from %d past sessions: estimated %d min, difficulty %s → predicted %d min (%d%% of estimate).",
		m.samples, task.EstimatedMinutes, difficulty, pred, ratio,
	)
	return pred, explain, true
}

// subjectAverages computes the mean recorded minutes per subject over done
// sessions, the third regression feature.
func subjectAverages(events []model.SessionEvent) map[uint]float64 {
	sum := make(map[uint]int)
	count := make(map[uint]int)
	for _, e := range events {
		if e.Outcome != model.OutcomeDone || e.SubjectID == 0 {
			continue
		}
		sum[e.SubjectID] += e.Minutes
		count[e.SubjectID]++
	}
	avg := make(map[uint]float64, len(sum))
	for id, total := range sum {
		avg[id] = float64(total) / float64(count[id])
	}
	return avg
}

// PatternCluster describes one productivity pattern found in the history.
type PatternCluster struct {
	ID         int    `json:"id"`
	AvgMinutes int    `json:"avgMinutes"`
	TypicalDay string `json:"typicalDay"`
	Label      string `json:"label"`
}

// PatternResult is the outcome of productivity clustering. Ready is false when
// the history is too short; that is a normal result, not an error.
type PatternResult struct {
	Ready       bool             `json:"ready"`
	Explain     string           `json:"explain"`
	Clusters    []PatternCluster `json:"clusters"`
	SampleCount int              `json:"nSamples"`
}

// Patterns clusters the user's done sessions over (minutes, day-of-week) and
// describes each cluster in plain language.
func (s *MLService) Patterns(ctx context.Context, userID uint) (PatternResult, error) {
	events, err := s.eventRepo.ListCompleted(ctx, userID)
	if err != nil {
		return PatternResult{}, err
	}
	return ClusterSessions(events), nil
}

// ClusterSessions runs k-means over the qualifying sessions. Sessions with a
// non-positive duration or an unparseable date are skipped rather than
// defaulted.
func ClusterSessions(events []model.SessionEvent) PatternResult {
	var points [][2]float64
	for _, e := range events {
		if e.Outcome != model.OutcomeDone || e.Minutes <= 0 {
			continue
		}
		day, err := time.Parse(dateLayout, e.ScheduledDate)
		if err != nil {
			continue
		}
		dow := (int(day.Weekday()) + 6) % 7 // Monday=0 … Sunday=6
		points = append(points, [2]float64{float64(e.Minutes), float64(dow)})
	}

	if len(points) < minSamplesClustering {
		return PatternResult{
			Ready:       false,
			Explain:     "Need at least 4 completed study sessions to detect productivity patterns.",
			Clusters:    []PatternCluster{},
			SampleCount: len(points),
		}
	}

	k := len(points) / 2
	if k < 2 {
		k = 2
	}
	if k > maxClusters {
		k = maxClusters
	}

	centers := kmeans(points, k)

	clusters := make([]PatternCluster, 0, len(centers))
	for i, c := range centers {
		avg := int(math.Round(c[0]))
		dow := int(math.Round(c[1])) % 7
		day := dayNames[dow]
		clusters = append(clusters, PatternCluster{
			ID:         i,
			AvgMinutes: avg,
			TypicalDay: day,
			Label:      fmt.Sprintf("~%d min, often %s", avg, day),
		})
	}

	// Ascending by average minutes gives a consistent light/medium/heavy order.
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].AvgMinutes < clusters[j].AvgMinutes
	})

	labels := make([]string, len(clusters))
	for i, c := range clusters {
		labels[i] = c.Label
	}

	return PatternResult{
		Ready:       true,
		Explain:     fmt.Sprintf("From %d sessions, we found %d patterns: %s.", len(points), k, strings.Join(labels, "; ")),
		Clusters:    clusters,
		SampleCount: len(points),
	}
}

// kmeans runs Lloyd's algorithm with a fixed seed and several random restarts,
// keeping the centers with the lowest inertia.
func kmeans(points [][2]float64, k int) [][2]float64 {
	if k > len(points) {
		k = len(points)
	}
	rng := rand.New(rand.NewSource(clusterSeed))

	var best [][2]float64
	bestInertia := math.Inf(1)

	for restart := 0; restart < clusterRestarts; restart++ {
		centers := make([][2]float64, k)
		for i, idx := range rng.Perm(len(points))[:k] {
			centers[i] = points[idx]
		}

		assign := make([]int, len(points))
		for i := range assign {
			assign[i] = -1
		}

		for iter := 0; iter < clusterIterations; iter++ {
			changed := false
			for i, p := range points {
				nearest := 0
				nearestDist := math.Inf(1)
				for c, center := range centers {
					d := squaredDistance(p, center)
					if d < nearestDist {
						nearestDist = d
						nearest = c
					}
				}
				if assign[i] != nearest {
					assign[i] = nearest
					changed = true
				}
			}
			if !changed {
				break
			}

			sums := make([][2]float64, k)
			counts := make([]int, k)
			for i, p := range points {
				c := assign[i]
				sums[c][0] += p[0]
				sums[c][1] += p[1]
				counts[c]++
			}
			for c := range centers {
				// An emptied cluster keeps its previous center.
				if counts[c] == 0 {
					continue
				}
				centers[c][0] = sums[c][0] / float64(counts[c])
				centers[c][1] = sums[c][1] / float64(counts[c])
			}
		}

		inertia := 0.0
		for i, p := range points {
			inertia += squaredDistance(p, centers[assign[i]])
		}
		if inertia < bestInertia {
			bestInertia = inertia
			best = centers
		}
	}

	return best
}

func squaredDistance(a, b [2]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}
