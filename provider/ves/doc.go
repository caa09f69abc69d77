// Package ves scrapes the official Venezuelan Bolivar (VES) reference rate.
//
// The BCV (Banco Central de Venezuela) publishes the official USD/VES rate
// once per business day at https://www.bcv.org.ve/. The wallet shows it
// next to the RIS rate, as a reference only; conversions never use it.
//
// The effective date (AsOf) is parsed from the "Fecha Valor" field on the page,
// and falls back to the fetch time when the page doesn't carry one.
package ves
