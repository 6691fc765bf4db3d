package services

import (
	"rent-dashboard/models"
	"rent-dashboard/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func listing(state, city, date string, totalRent float64) *models.Record {
	return &models.Record{
		State:     state,
		City:      city,
		Date:      date,
		TotalRent: models.Float(totalRent),
	}
}

// sampleDataset is a small, hand-checkable dataset across three states.
func sampleDataset() []*models.Record {
	return []*models.Record{
		{State: "Berlin", City: "Berlin", Date: "Feb20", TotalRent: models.Float(1200), BaseRent: models.Float(1000), ServiceCharge: models.Float(200), LivingSpace: models.Float(70), NoRooms: models.Float(3), FlatType: "apartment", YearCategory: "2000-2010", Balcony: true, Kitchen: true},
		{State: "Berlin", City: "Berlin", Date: "May19", TotalRent: models.Float(800), BaseRent: models.Float(650), ServiceCharge: models.Float(150), LivingSpace: models.Float(45), NoRooms: models.Float(2), FlatType: "apartment", YearCategory: "1950-1970", Lift: true},
		{State: "Bayern", City: "München", Date: "Feb20", TotalRent: models.Float(1800), BaseRent: models.Float(1550), ServiceCharge: models.Float(250), LivingSpace: models.Float(80), NoRooms: models.Float(3), FlatType: "loft", YearCategory: "2010-2020", Balcony: true, Garden: true},
		{State: "Bayern", City: "Nürnberg", Date: "Sep18", TotalRent: models.Float(900), BaseRent: models.Float(720), ServiceCharge: models.Float(180), LivingSpace: models.Float(60), NoRooms: models.Float(2), FlatType: "apartment", YearCategory: "1970-1990", Cellar: true},
		{State: "Baden_Württemberg", City: "Stuttgart", Date: "Feb20", TotalRent: models.Float(1300), BaseRent: models.Float(1100), ServiceCharge: models.Float(200), LivingSpace: models.Float(65), NoRooms: models.Float(2.5), FlatType: "roof_storey", YearCategory: "2000-2010", Balcony: true, Kitchen: true},
		{State: "Baden_Württemberg", City: "Stuttgart", Date: "May19", TotalRent: models.NoData, BaseRent: models.Float(900), ServiceCharge: models.NoData, LivingSpace: models.Float(55), NoRooms: models.Float(2), FlatType: "apartment", YearCategory: "", Lift: true},
	}
}
