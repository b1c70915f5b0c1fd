package model

// MealMetrics summarises diet adherence over a user's meals.
type MealMetrics struct {
	TotalMeals            int `json:"totalMeals"`
	TotalMealsWithinDiet  int `json:"totalMealsWithinDiet"`
	TotalMealsOutsideDiet int `json:"totalMealsOutsideDiet"`
	BestDietSequence      int `json:"bestDietSequence"`
}
