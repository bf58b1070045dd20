package utils

// optional.go - единая точка подстановки значений по умолчанию
//
// Назначение:
// Внешние данные (строки БД, ответы брокера) содержат nullable поля.
// Вместо разрозненных проверок на nil в каждом месте подстановка
// дефолтов выполняется этими комбинаторами на границе, после чего
// весь код ядра работает с полностью заполненными значениями.

// Float возвращает значение указателя или 0
func Float(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// FloatPtr возвращает указатель на значение (для сборки тестовых данных
// и ответов брокера)
func FloatPtr(v float64) *float64 {
	return &v
}

// StringOr возвращает строку или дефолт для пустой строки
func StringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
