package models

import (
	"log"

	"bitbucket.org/mmdatafocus/dealersync_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Dealer{}, &User{},
		&FetchLog{},
		&Prospect{}, &ProspectUnit{},
		&ServiceOrder{}, &ServiceOrderLine{},
		&PartsShipment{}, &PartsShipmentLine{},
		&Invoice{}, &InvoiceLine{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
