package seeders

import (
	"fmt"
	"log"

	"unitimetable/database"
	"unitimetable/models"
	"unitimetable/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedYears()
	SeedGroups()
	SeedRooms()
	SeedSubjects()
	SeedUsers()

	log.Println("Database seeding completed successfully!")
}

// SeedYears seeds the academic years L1 through M2.
func SeedYears() {
	var count int64
	database.DB.Model(&models.Year{}).Count(&count)
	if count > 0 {
		log.Println("Years already seeded, skipping...")
		return
	}

	names := []string{"L1", "L2", "L3", "M1", "M2"}
	for i, name := range names {
		year := models.Year{Name: name, SortOrder: i + 1}
		if err := database.DB.Create(&year).Error; err != nil {
			log.Printf("Error seeding year %s: %v", name, err)
		}
	}

	log.Println("Years seeded successfully")
}

// SeedGroups creates two groups per year.
func SeedGroups() {
	var count int64
	database.DB.Model(&models.Group{}).Count(&count)
	if count > 0 {
		log.Println("Groups already seeded, skipping...")
		return
	}

	var years []models.Year
	if err := database.DB.Find(&years).Error; err != nil {
		log.Printf("Error loading years for group seeding: %v", err)
		return
	}

	for _, year := range years {
		for g := 1; g <= 2; g++ {
			group := models.Group{YearID: year.ID, Name: fmt.Sprintf("G%d", g)}
			if err := database.DB.Create(&group).Error; err != nil {
				log.Printf("Error seeding group %s/%s: %v", year.Name, group.Name, err)
			}
		}
	}

	log.Println("Groups seeded successfully")
}

// SeedRooms seeds classrooms, lecture halls and labs.
func SeedRooms() {
	var count int64
	database.DB.Model(&models.Room{}).Count(&count)
	if count > 0 {
		log.Println("Rooms already seeded, skipping...")
		return
	}

	rooms := []models.Room{
		{Name: "Salle 101", Capacity: 40, Kind: "salle", Active: true},
		{Name: "Salle 102", Capacity: 40, Kind: "salle", Active: true},
		{Name: "Salle 103", Capacity: 35, Kind: "salle", Active: true},
		{Name: "Salle 201", Capacity: 40, Kind: "salle", Active: true},
		{Name: "Salle 202", Capacity: 30, Kind: "salle", Active: true},
		{Name: "Amphi A", Capacity: 200, Kind: "amphi", Active: true},
		{Name: "Amphi B", Capacity: 150, Kind: "amphi", Active: true},
		{Name: "Labo Info 1", Capacity: 25, Kind: "labo", Active: true},
		{Name: "Labo Info 2", Capacity: 25, Kind: "labo", Active: true},
	}

	for _, room := range rooms {
		if err := database.DB.Create(&room).Error; err != nil {
			log.Printf("Error seeding room %s: %v", room.Name, err)
		}
	}

	log.Println("Rooms seeded successfully")
}

// SeedSubjects seeds a starter catalogue per year.
func SeedSubjects() {
	var count int64
	database.DB.Model(&models.Subject{}).Count(&count)
	if count > 0 {
		log.Println("Subjects already seeded, skipping...")
		return
	}

	var years []models.Year
	if err := database.DB.Order("sort_order").Find(&years).Error; err != nil {
		log.Printf("Error loading years for subject seeding: %v", err)
		return
	}
	byName := make(map[string]uint, len(years))
	for _, y := range years {
		byName[y.Name] = y.ID
	}

	subjects := []models.Subject{
		{Name: "Algorithmique", Code: "ALGO1", YearID: byName["L1"]},
		{Name: "Analyse", Code: "ANA1", YearID: byName["L1"]},
		{Name: "Architecture des ordinateurs", Code: "ARCHI", YearID: byName["L1"]},
		{Name: "Structures de données", Code: "SD2", YearID: byName["L2"]},
		{Name: "Bases de données", Code: "BD2", YearID: byName["L2"]},
		{Name: "Systèmes d'exploitation", Code: "SE3", YearID: byName["L3"]},
		{Name: "Réseaux", Code: "RES3", YearID: byName["L3"]},
		{Name: "Génie logiciel", Code: "GL3", YearID: byName["L3"]},
		{Name: "Apprentissage automatique", Code: "ML1", YearID: byName["M1"]},
		{Name: "Systèmes distribués", Code: "SDIS1", YearID: byName["M1"]},
		{Name: "Sécurité informatique", Code: "SEC2", YearID: byName["M2"]},
		{Name: "Projet de fin d'études", Code: "PFE", YearID: byName["M2"]},
	}

	for _, subject := range subjects {
		if err := database.DB.Create(&subject).Error; err != nil {
			log.Printf("Error seeding subject %s: %v", subject.Code, err)
		}
	}

	log.Println("Subjects seeded successfully")
}

// SeedUsers seeds an admin plus demo professor and student accounts. The
// default password must be rotated on first login in any real deployment.
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashedPassword, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			Username: "admin", Password: hashedPassword,
			Email: "admin@univ.example", FirstName: "Nadia", LastName: "Bensalem",
			Role: "admin", Status: "active",
		},
		{
			Username: "m.durand", Password: hashedPassword,
			Email: "m.durand@univ.example", FirstName: "Marc", LastName: "Durand",
			Role: "professor", Status: "active",
		},
		{
			Username: "s.leroy", Password: hashedPassword,
			Email: "s.leroy@univ.example", FirstName: "Sophie", LastName: "Leroy",
			Role: "professor", Status: "active",
		},
		{
			Username: "k.haddad", Password: hashedPassword,
			Email: "k.haddad@univ.example", FirstName: "Karim", LastName: "Haddad",
			Role: "professor", Status: "active",
		},
		{
			Username: "student1", Password: hashedPassword,
			Email: "student1@univ.example", FirstName: "Léa", LastName: "Martin",
			Role: "student", Status: "active",
		},
	}

	for _, user := range users {
		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("Error seeding user %s: %v", user.Username, err)
		}
	}

	log.Println("Users seeded successfully")
}
