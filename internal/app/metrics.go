package app

import "mealtracker/internal/model"

// AggregateMetrics scans meals in the order given, which callers keep as
// newest first. BestDietSequence is the longest run of adjacent on-diet
// meals in that order; gaps between dates do not break a run.
func AggregateMetrics(meals []model.Meal) model.MealMetrics {
	var metrics model.MealMetrics
	streak := 0
	for _, meal := range meals {
		metrics.TotalMeals++
		if !meal.IsOnDiet {
			metrics.TotalMealsOutsideDiet++
			streak = 0
			continue
		}
		metrics.TotalMealsWithinDiet++
		streak++
		if streak > metrics.BestDietSequence {
			metrics.BestDietSequence = streak
		}
	}
	return metrics
}
