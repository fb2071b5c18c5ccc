package workflow

// Recommendations is the result of Recommend. When the analysis window has
// too little data, Status carries insufficient_data and the list is empty.
type Recommendations struct {
	Status          string   `json:"status"`
	UserID          string   `json:"user_id"`
	TimeRange       string   `json:"time_range"`
	Recommendations []string `json:"recommendations"`
}

// rule maps a predicate over an aggregate to a fixed suggestion. The rules
// are ordered; every matching rule contributes its message.
type rule struct {
	name    string
	applies func(a Aggregate, windowDays int) bool
	message string
}

var rules = []rule{
	{
		name:    "low-on-time-rate",
		applies: func(a Aggregate, _ int) bool { return a.OnTimeRate < 0.7 },
		message: "On-time completion is below 70%. Build buffer time into task estimates before committing to deadlines.",
	},
	{
		name:    "long-tasks",
		applies: func(a Aggregate, _ int) bool { return a.AverageDurationMinutes > 120 },
		message: "Completed tasks average over two hours. Break large tasks into chunks that fit a single focus block.",
	},
	{
		name: "overloaded-days",
		applies: func(a Aggregate, days int) bool {
			return float64(a.TasksCompleted)/float64(days) > 5
		},
		message: "You are finishing more than five tasks per day. Schedule fewer tasks per day to protect focus time.",
	},
	{
		name: "priority-heavy",
		applies: func(a Aggregate, _ int) bool {
			urgent := a.PriorityDistribution["high"] + a.PriorityDistribution["critical"]
			return float64(urgent)/float64(a.TasksCompleted) > 0.5
		},
		message: "Over half of completed work is high or critical priority. Delegate or renegotiate priorities before they pile up.",
	},
}

const healthyMessage = "Your workflow looks healthy. Keep the current rhythm."

// Recommend runs Analyze and derives suggestions from the rule table. With
// insufficient data it reports that status and no recommendations.
func (o *Optimizer) Recommend(userID, timeRange string) (Recommendations, error) {
	analysis, err := o.Analyze(userID, timeRange)
	if err != nil {
		return Recommendations{}, err
	}

	rec := Recommendations{
		Status:          analysis.Status,
		UserID:          analysis.UserID,
		TimeRange:       analysis.TimeRange,
		Recommendations: []string{},
	}
	if analysis.Status == StatusInsufficientData {
		return rec, nil
	}

	days, _ := windowDays(analysis.TimeRange)
	for _, r := range rules {
		if r.applies(*analysis.Aggregate, days) {
			rec.Recommendations = append(rec.Recommendations, r.message)
		}
	}
	if len(rec.Recommendations) == 0 {
		rec.Recommendations = append(rec.Recommendations, healthyMessage)
	}
	return rec, nil
}
