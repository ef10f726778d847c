package models

// TradingDaysPerYear scales daily statistics to annual ones
const TradingDaysPerYear = 252

// CalendarDaysPerYear converts a lookback in years to calendar days
const CalendarDaysPerYear = 365
