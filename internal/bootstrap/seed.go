package bootstrap

import (
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/model"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Category{},
		&model.User{},
		&model.PasswordReset{},
		&model.Book{},
		&model.Loan{},
	)
}

// SeedCategories creates the default shelf of categories on an empty
// database. Existing names are left untouched.
func SeedCategories(db *gorm.DB) error {
	defaults := []model.Category{
		{Nombre: "Ficción", Descripcion: "Novelas y relatos de ficción", Icono: "📖", Color: "#2563eb", Activo: true},
		{Nombre: "Ciencia", Descripcion: "Divulgación y obras científicas", Icono: "🔬", Color: "#059669", Activo: true},
		{Nombre: "Historia", Descripcion: "Historia y biografías", Icono: "🏛️", Color: "#b45309", Activo: true},
		{Nombre: "Tecnología", Descripcion: "Informática y tecnología", Icono: "💻", Color: "#7c3aed", Activo: true},
		{Nombre: "Infantil", Descripcion: "Literatura infantil y juvenil", Icono: "🧸", Color: "#db2777", Activo: true},
	}

	for _, cat := range defaults {
		var count int64
		if err := db.Model(&model.Category{}).
			Where("nombre = ?", cat.Nombre).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&cat).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func SeedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@biblioteca.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("[INFO] admin user already exists, skipping seed")
		return nil
	}

	password := "admin12345"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Nombre:       "Administrador",
		Email:        "admin@biblioteca.local",
		PasswordHash: string(hashedPasswordBytes),
		Rol:          model.RolAdmin,
		Activo:       true,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Println("[INFO] admin user seeded")
	log.Println("       Email: admin@biblioteca.local")
	log.Println("       Password: admin12345")

	return nil
}
