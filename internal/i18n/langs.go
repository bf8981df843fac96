package i18n

var english = Dictionary{
	"itemsOnPage":      "Items on page",
	"itemsPerPage":     "Items per page",
	"homePage":         "Home page",
	"deleteItem":       "Delete item",
	"areYouSure":       "Are you sure",
	"yes":              "Yes",
	"no":               "No",
	"noItems":          "No items",
	"login":            "Login",
	"loginAction":      "Login",
	"password":         "Password",
	"loginToProceed":   "Please, login to proceed",
	"wrongCredentials": "Wrong credentials",
	"logout":           "Log out",
	"createEntityItem": "Create entity item",
	"editEntityItem":   "Edit entity item",
	"newItem":          "New item",
	"item":             "Item",
	"save":             "Save",
	"saveAndReturn":    "Save and return",
	"delete":           "Delete",
	"chooseFile":       "Choose file",
	"uploadMessage":    "File will be uploaded on save",
	"cancel":           "Cancel",
	"loading":          "Loading",

	"successfullySaved":     "Successfully saved",
	"checkValidationErrors": "Check the highlighted fields",
	"of":                    "of",
}

var russian = Dictionary{
	"itemsOnPage":           "Эл-ты на странице",
	"itemsPerPage":          "Эл-тов на странице",
	"homePage":              "Главная страница",
	"deleteItem":            "Удалить элемент",
	"areYouSure":            "Вы уверены",
	"yes":                   "Да",
	"no":                    "Нет",
	"noItems":               "Список пуст",
	"login":                 "Имя пользователя",
	"loginAction":           "Войти",
	"password":              "Пароль",
	"loginToProceed":        "Войдите, чтобы продолжить",
	"wrongCredentials":      "Неверное имя пользователя или пароль",
	"logout":                "Выйти",
	"createEntityItem":      "Создать элемент",
	"editEntityItem":        "Редактировать элемент",
	"newItem":               "Новый элемент",
	"item":                  "Элемент",
	"save":                  "Сохранить",
	"saveAndReturn":         "Сохранить и вернуться",
	"delete":                "Удалить",
	"chooseFile":            "Выберите файл",
	"uploadMessage":         "Файл будет загружен при сохранении",
	"cancel":                "Отменить",
	"loading":               "Загрузка",
	"successfullySaved":     "Успешно сохранено",
	"checkValidationErrors": "Проверьте правильность заполнения полей",
	"of":                    "из",
}
